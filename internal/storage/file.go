package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilePublisher writes artifacts below a local directory.
type FilePublisher struct {
	root string
}

// NewFilePublisher creates a publisher rooted at dir.
func NewFilePublisher(dir string) *FilePublisher {
	return &FilePublisher{root: dir}
}

// Put writes data to <root>/<key> so readers never observe a partial file.
func (p *FilePublisher) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return writeFileAtomic(filepath.Join(p.root, filepath.FromSlash(key)), data, 0o644)
}

// writeFileAtomic writes <target>.tmp, moves any existing target to
// <target>.bak, renames the tmp file into place and drops the backup. A failed
// final rename restores the backup.
func writeFileAtomic(target string, data []byte, perm os.FileMode) error {
	tmpPath := target + ".tmp"
	bakPath := target + ".bak"

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:gosec // G301: published artifacts are world-readable
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if _, err := os.Stat(target); err == nil {
		if err := move(target, bakPath); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("backing up previous artifact: %w", err)
		}
	}

	if err := move(tmpPath, target); err != nil {
		if _, bakErr := os.Stat(bakPath); bakErr == nil {
			_ = move(bakPath, target)
		}
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing artifact: %w", err)
	}

	_ = os.Remove(bakPath)
	return nil
}

// move renames, falling back to copy and delete across devices.
func move(from, to string) error {
	renameErr := os.Rename(from, to)
	if renameErr == nil {
		return nil
	}
	if err := copyFile(from, to); err != nil {
		return fmt.Errorf("copy fallback: %w (rename error: %w)", err, renameErr)
	}
	_ = os.Remove(from)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // G304: paths are derived from the publisher root
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst) //nolint:gosec // G304: paths are derived from the publisher root
	if err != nil {
		return err
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}
