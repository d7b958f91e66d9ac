package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

const fallbackDirName = "atlas-demo-data"

// Candidates lists the data directories tried in order
func Candidates(configured string) []string {
	var out []string
	if configured != "" {
		out = append(out, configured)
	}
	if wd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(wd, ".data"))
	}
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		out = append(out, filepath.Join(tmp, fallbackDirName))
	}
	out = append(out, filepath.Join("/tmp", fallbackDirName))

	for i, c := range out {
		if abs, err := filepath.Abs(c); err == nil {
			out[i] = abs
		}
	}
	return out
}

// ResolveDir returns the first candidate directory that can be created.
// Permission, read-only and missing-parent failures move on to the next candidate.
func ResolveDir(candidates []string) (string, error) {
	var lastErr error

	for _, dir := range candidates {
		err := os.MkdirAll(dir, 0o700)
		if err == nil {
			return dir, nil
		}
		if skippable(err) {
			lastErr = err
			continue
		}
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	if lastErr == nil {
		lastErr = errors.New("no candidate directories")
	}
	return "", fmt.Errorf("unable to resolve demo data directory: %w", lastErr)
}

func skippable(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.EROFS) ||
		errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.ENOTDIR)
}
