package main

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrParse              = errors.New("store: malformed document")
	ErrUserNotFound       = errors.New("User not found")
	ErrPostNotFound       = errors.New("Post not found")
	ErrInvalidCredentials = errors.New("Invalid email or password")
)

// Backend persists the whole document. Implementations always read and write
// the full document; there are no partial updates.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// Store serializes access to a Backend so that read-modify-write cycles from
// concurrent requests never interleave.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// View loads the document and passes it to fn. Changes made by fn are discarded.
func (s *Store) View(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	return fn(doc)
}

// Update loads the document, lets fn mutate it and saves it back. Nothing is
// written when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	doc.normalize()

	return s.backend.Save(ctx, doc)
}
