package backup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// archiveName returns the backup filename for a world at a point in time.
func archiveName(world string, now time.Time) string {
	return fmt.Sprintf("%s_%s.tar.gz", world, now.UTC().Format("2006-01-02_15h04"))
}

// createArchive writes a gzipped tarball of srcDir to destPath. Entries are
// stored relative to srcDir's parent so the archive unpacks into a single
// world directory. Symlinks are stored as links, not followed: the active
// server jar points into the shared artifact cache and must not be duplicated
// into every backup.
func createArchive(srcDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzWriter)

	root := filepath.Dir(srcDir)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tarWriter, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", srcDir, err)
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return file.Close()
}

// isArchiveName reports whether name looks like a backup produced by
// createArchive for the given world.
func isArchiveName(name, world string) bool {
	return strings.HasPrefix(name, world+"_") && strings.HasSuffix(name, ".tar.gz")
}
