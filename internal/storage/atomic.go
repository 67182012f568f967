package storage

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// atomicFile is a temporary file that replaces path only on Commit.
type atomicFile struct {
	*os.File
	path string
}

// createAtomic opens a temporary file next to path
func createAtomic(path string, perm os.FileMode) (*atomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &atomicFile{File: f, path: path}, nil
}

// Commit closes the temporary file and renames it over path
func (f *atomicFile) Commit() error {
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), f.path); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Abort discards the temporary file. Calling it after Commit is a no-op.
func (f *atomicFile) Abort() {
	f.File.Close()
	os.Remove(f.Name())
}

// writeAtomic writes data to path so readers see either the old content or
// all of data.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	f, err := createAtomic(path, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return err
	}
	return f.Commit()
}

// checksumSHA256 returns the base64 SHA-256 of r, the encoding S3 expects in
// ChecksumSHA256, and rewinds r to the start.
func checksumSHA256(r io.ReadSeeker) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
