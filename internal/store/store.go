// Package store reads and writes the persisted library document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// ErrNotExist is returned by LoadExisting when the document file is missing.
var ErrNotExist = errors.New("library document does not exist")

// Store persists a LibraryDocument as indented JSON.
type Store struct {
	fs afero.Fs
}

// New creates a Store on top of the given filesystem.
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// NewOS creates a Store backed by the operating system filesystem.
func NewOS() *Store {
	return New(afero.NewOsFs())
}

// Load reads the document at path. A missing file yields an empty document
// and no error.
func (s *Store) Load(path string) (*entities.LibraryDocument, error) {
	doc, err := s.LoadExisting(path)
	if errors.Is(err, ErrNotExist) {
		return &entities.LibraryDocument{Books: []entities.BookRecord{}}, nil
	}
	return doc, err
}

// LoadExisting reads the document at path and fails with ErrNotExist when the
// file is missing.
func (s *Store) LoadExisting(path string) (*entities.LibraryDocument, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc entities.LibraryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Books == nil {
		doc.Books = []entities.BookRecord{}
	}
	return &doc, nil
}

// Save overwrites the document at path. The JSON is written to a temporary
// file in the same directory and renamed into place.
func (s *Store) Save(path string, doc *entities.LibraryDocument) error {
	if doc.Books == nil {
		doc.Books = []entities.BookRecord{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmpFile, err := afero.TempFile(s.fs, dir, ".books_tmp_")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		_ = s.fs.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.fs.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the raw contents of path.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Open opens path for reading.
func (s *Store) Open(path string) (afero.File, error) {
	return s.fs.Open(path)
}
