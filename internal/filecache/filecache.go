// Package filecache is a directory-backed cache of downloaded feed documents,
// keyed by logical name (e.g. "xmltv.xml", "playlist.m3u"). Parsers stream
// large documents from the cached path instead of holding them in memory.
package filecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores files under a single directory. The zero value is not usable;
// call New.
type Cache struct {
	dir string
}

// New creates the cache directory if needed and returns the cache.
func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("filecache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filecache: mkdir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Get returns the cached content for name, or os.ErrNotExist when absent.
func (c *Cache) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(c.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("filecache: read %s: %w", name, err)
	}
	return data, nil
}

// Path returns the on-disk path for name and whether the file exists.
func (c *Cache) Path(name string) (string, bool) {
	p := c.path(name)
	_, err := os.Stat(p)
	return p, err == nil
}

// Write stores content under name. Writes go through a temp file and rename
// so a reader never sees a half-written document.
func (c *Cache) Write(name string, data []byte) error {
	p := c.path(name)
	tmp := p + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("filecache: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("filecache: rename %s: %w", name, err)
	}
	return nil
}

// Clear removes every cached file. The directory itself is kept.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("filecache: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("filecache: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// path maps a logical name to a file path. Same name always maps to the same
// path; separators and NULs are replaced so a name cannot escape the dir.
func (c *Cache) path(name string) string {
	s := strings.ReplaceAll(name, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	if s == "" {
		s = "unknown"
	}
	return filepath.Join(c.dir, s)
}
