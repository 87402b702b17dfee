package launchermeta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const manifestFixture = `{
	"latest": {"release": "1.20.4", "snapshot": "24w07a"},
	"versions": [
		{"id": "24w07a", "url": "https://example.com/24w07a.json"},
		{"id": "1.20.4", "url": "https://example.com/1.20.4.json"},
		{"id": "1.20.3", "url": "https://example.com/1.20.3.json"}
	]
}`

func manifestFromFixture(t *testing.T) *Manifest {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestFixture))
	}))
	t.Cleanup(server.Close)

	manifest, err := NewClient(server.URL).Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	return manifest
}

func TestResolveExact(t *testing.T) {
	manifest := manifestFromFixture(t)

	entry, err := manifest.Resolve(Exact("1.20.3"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if entry.ID != "1.20.3" {
		t.Errorf("expected 1.20.3, got %s", entry.ID)
	}
}

func TestResolveAliases(t *testing.T) {
	manifest := manifestFromFixture(t)

	entry, err := manifest.Resolve(LatestRelease)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if entry.ID != "1.20.4" {
		t.Errorf("latest release: expected 1.20.4, got %s", entry.ID)
	}

	entry, err = manifest.Resolve(LatestSnapshot)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if entry.ID != "24w07a" {
		t.Errorf("latest snapshot: expected 24w07a, got %s", entry.ID)
	}
}

func TestResolveZeroValueIsLatestRelease(t *testing.T) {
	manifest := manifestFromFixture(t)

	entry, err := manifest.Resolve(VersionSpec{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if entry.ID != "1.20.4" {
		t.Errorf("expected 1.20.4, got %s", entry.ID)
	}
}

func TestResolveNoMatch(t *testing.T) {
	manifest := manifestFromFixture(t)

	_, err := manifest.Resolve(Exact("b1.7.3"))
	if !errors.Is(err, ErrNoSuchVersion) {
		t.Fatalf("expected ErrNoSuchVersion, got %v", err)
	}
}

func TestResolveEmptyManifest(t *testing.T) {
	manifest := &Manifest{}

	_, err := manifest.Resolve(LatestRelease)
	if !errors.Is(err, ErrNoSuchVersion) {
		t.Fatalf("expected ErrNoSuchVersion, got %v", err)
	}
}

func TestVersionInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected user agent: %s", got)
		}
		w.Write([]byte(`{"downloads": {"server": {"url": "https://example.com/server.jar", "sha1": "abc", "size": 49}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	info, err := client.VersionInfo(context.Background(), &ManifestEntry{ID: "1.20.4", URL: server.URL})
	if err != nil {
		t.Fatalf("VersionInfo failed: %v", err)
	}
	if info.Downloads.Server.URL != "https://example.com/server.jar" {
		t.Errorf("unexpected server URL: %s", info.Downloads.Server.URL)
	}
	if info.Downloads.Server.Size != 49 {
		t.Errorf("unexpected size: %d", info.Downloads.Server.Size)
	}
}

func TestManifestNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Manifest(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestDownload(t *testing.T) {
	payload := []byte("jar bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "minecraft_server.1.20.4.jar")
	written, err := NewClient(server.URL).Download(context.Background(), server.URL, dest)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if written != int64(len(payload)) {
		t.Errorf("expected %d bytes, got %d", len(payload), written)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestDownloadStatusErrorLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "minecraft_server.1.20.4.jar")
	if _, err := NewClient(server.URL).Download(context.Background(), server.URL, dest); err == nil {
		t.Fatal("expected error for 410 response")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination file should not exist after status error")
	}
}
