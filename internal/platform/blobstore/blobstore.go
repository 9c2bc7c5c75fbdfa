// Package blobstore stores uploaded files for the marketplace. It defines the
// Store interface, validation rules per upload kind, and a thread-safe
// in-memory implementation used in development and tests.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidKind        = errors.New("unknown upload kind")
)

// Kind classifies an upload and selects its validation rules.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

const (
	// MaxImageSize caps image uploads at 5 MB.
	MaxImageSize = 5 * 1024 * 1024
	// MaxDocumentSize caps document uploads at 20 MB.
	MaxDocumentSize = 20 * 1024 * 1024
)

var imageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

var documentContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"text/plain":      true,
}

// MaxSize returns the size ceiling in bytes for the kind.
func (k Kind) MaxSize() (int64, error) {
	switch k {
	case KindImage:
		return MaxImageSize, nil
	case KindDocument:
		return MaxDocumentSize, nil
	default:
		return 0, ErrInvalidKind
	}
}

// Accepts reports whether the content type is allowed for the kind.
func (k Kind) Accepts(contentType string) bool {
	switch k {
	case KindImage:
		return imageContentTypes[contentType]
	case KindDocument:
		return documentContentTypes[contentType]
	default:
		return false
	}
}

// Blob describes a stored file.
type Blob struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Kind        Kind      `json:"kind"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is the contract for upload storage backends.
type Store interface {
	Put(ctx context.Context, meta Blob, content io.Reader) (*Blob, error)
	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Blob, error)
	Stat(ctx context.Context, id uuid.UUID) (*Blob, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Blob, error)
}

type storedBlob struct {
	meta    Blob
	content []byte
}

// Memory is a thread-safe in-memory Store.
type Memory struct {
	mu    sync.RWMutex
	blobs map[uuid.UUID]*storedBlob
}

// NewMemory returns a ready-to-use Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[uuid.UUID]*storedBlob)}
}

// Put validates the upload against its kind's rules, reads the content,
// computes a SHA-256 hash, and stores the blob.
func (s *Memory) Put(_ context.Context, meta Blob, content io.Reader) (*Blob, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}
	maxSize, err := meta.Kind.MaxSize()
	if err != nil {
		return nil, err
	}
	if !meta.Kind.Accepts(meta.ContentType) {
		return nil, fmt.Errorf("%w: %s for %s upload", ErrInvalidContentType, meta.ContentType, meta.Kind)
	}

	data, err := io.ReadAll(io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{meta: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

// Open returns the blob content as an io.ReadCloser together with its metadata.
func (s *Memory) Open(_ context.Context, id uuid.UUID) (io.ReadCloser, *Blob, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrNotFound
	}
	meta := b.meta
	return io.NopCloser(bytes.NewReader(b.content)), &meta, nil
}

// Stat returns blob metadata without the content.
func (s *Memory) Stat(_ context.Context, id uuid.UUID) (*Blob, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	meta := b.meta
	return &meta, nil
}

// Delete removes a blob by ID.
func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, id)
	return nil
}

// ListByOwner returns all blobs uploaded by the given user.
func (s *Memory) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Blob, 0)
	for _, b := range s.blobs {
		if b.meta.OwnerID != ownerID {
			continue
		}
		m := b.meta
		out = append(out, &m)
	}
	return out, nil
}
