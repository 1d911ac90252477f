package bccache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// FileSystemCache stores one file per fingerprint inside a directory.
// File names are derived from a digest of the key, never from the raw
// template name, so any fingerprint yields a filesystem-safe name.
// A missing or unreadable file is a miss; only writes report errors.
type FileSystemCache struct {
	dir string
}

// NewFileSystemCache creates a cache writing into dir, which must exist.
func NewFileSystemCache(dir string) *FileSystemCache {
	return &FileSystemCache{dir: dir}
}

// path returns the cache file path for a bucket key.
func (c *FileSystemCache) path(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return filepath.Join(c.dir, fmt.Sprintf("__tmplpress_%x.cache", sum[:16]))
}

// LoadBytecode fills the bucket from its cache file, if present.
func (c *FileSystemCache) LoadBytecode(b *Bucket) error {
	data, err := os.ReadFile(c.path(b.Key()))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("bytecode cache read failed", "key", b.Key(), "error", err)
		}
		b.Reset()
		return nil
	}
	return b.FromBytes(data)
}

// DumpBytecode writes the bucket's program to its cache file. The write
// goes through a temp file and a rename so a concurrent load never sees
// a partial entry.
func (c *FileSystemCache) DumpBytecode(b *Bucket) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "__tmplpress_*.tmp")
	if err != nil {
		return fmt.Errorf("bytecode cache temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("bytecode cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("bytecode cache close: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path(b.Key())); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("bytecode cache rename: %w", err)
	}
	return nil
}

// Clear removes every cache file in the directory.
func (c *FileSystemCache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "__tmplpress_*.cache"))
	if err != nil {
		return fmt.Errorf("bytecode cache glob: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("bytecode cache remove: %w", err)
		}
	}
	return nil
}
