package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"
)

// FileBackend keeps the document as a pretty-printed JSON file.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Load(_ context.Context) (*Document, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	return decodeDocument(b)
}

// Save writes the document next to the target and renames it into place, so
// the existing file is never truncated before the new content is on disk.
func (f *FileBackend) Save(_ context.Context, doc *Document) error {
	b, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename into %s: %w", f.path, err)
	}

	slog.Debug("Document saved", "path", f.path, "bytes", len(b))

	return nil
}

func decodeDocument(b []byte) (*Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return NewDocument(), nil
	}

	doc := NewDocument()
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	doc.normalize()

	return doc, nil
}

func encodeDocument(doc *Document) ([]byte, error) {
	doc.normalize()

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return b, nil
}
