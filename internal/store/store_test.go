package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArtifactRoundTrip(t *testing.T) {
	s := openTestStore(t)

	artifact := &Artifact{
		Version: "1.20.4",
		Path:    "/opt/wurstmineberg/jar/minecraft_server.1.20.4.jar",
		Size:    49149203,
		SHA256:  "deadbeef",
	}
	if err := s.RecordArtifact(artifact); err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}

	loaded, err := s.Artifact("1.20.4")
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected artifact, got nil")
	}
	if loaded.Path != artifact.Path || loaded.Size != artifact.Size || loaded.SHA256 != "deadbeef" {
		t.Errorf("unexpected artifact: %+v", loaded)
	}
	if loaded.DownloadedAt.IsZero() {
		t.Error("expected downloaded_at to be set")
	}
}

func TestArtifactUpsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordArtifact(&Artifact{Version: "1.20.4", Path: "/a", Size: 1, SHA256: "x"}); err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}
	if err := s.RecordArtifact(&Artifact{Version: "1.20.4", Path: "/b", Size: 2, SHA256: "y"}); err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}

	loaded, err := s.Artifact("1.20.4")
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	if loaded.Path != "/b" || loaded.SHA256 != "y" {
		t.Errorf("expected replaced artifact, got %+v", loaded)
	}
}

func TestArtifactMissing(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.Artifact("0.0.0")
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil for missing artifact, got %+v", loaded)
	}
}

func TestUpdateLog(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordUpdate("wurstmineberg", "1.20.3", "1.20.4"); err != nil {
		t.Fatalf("RecordUpdate failed: %v", err)
	}
	if err := s.RecordUpdate("creative", "", "1.20.4"); err != nil {
		t.Fatalf("RecordUpdate failed: %v", err)
	}

	records, err := s.Updates("wurstmineberg", 10)
	if err != nil {
		t.Fatalf("Updates failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].FromVersion != "1.20.3" || records[0].ToVersion != "1.20.4" {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if records[0].ID == "" {
		t.Error("expected record id to be set")
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store

	if err := s.RecordArtifact(&Artifact{Version: "1.20.4"}); err != nil {
		t.Errorf("nil store RecordArtifact: %v", err)
	}
	if err := s.RecordUpdate("w", "", "1.20.4"); err != nil {
		t.Errorf("nil store RecordUpdate: %v", err)
	}
	if _, err := s.Artifact("1.20.4"); err != nil {
		t.Errorf("nil store Artifact: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil store Close: %v", err)
	}
}
