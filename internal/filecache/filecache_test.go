package filecache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteGetClear(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("xmltv.xml"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Get on empty cache: err = %v, want os.ErrNotExist", err)
	}

	if err := c.Write("xmltv.xml", []byte("<tv/>")); err != nil {
		t.Fatal(err)
	}
	data, err := c.Get("xmltv.xml")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<tv/>" {
		t.Errorf("data = %q", data)
	}

	path, ok := c.Path("xmltv.xml")
	if !ok {
		t.Fatal("Path: file should exist")
	}
	if filepath.Base(path) != "xmltv.xml" {
		t.Errorf("path = %q", path)
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Path("xmltv.xml"); ok {
		t.Error("file survived Clear")
	}
}

func TestPathSanitized(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Write("../escape", []byte("x")); err != nil {
		t.Fatal(err)
	}
	path, ok := c.Path("../escape")
	if !ok {
		t.Fatal("sanitized file missing")
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path %q escaped cache dir %q", path, dir)
	}
}

func TestNewRejectsEmptyDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty dir")
	}
}
