package repository

import (
	"context"
	"strconv"
	"sync"
)

type memoryDocumentStore struct {
	mu       sync.Mutex
	content  []byte
	revision int
	exists   bool
}

// NewMemoryDocumentStore returns a process-local DocumentStore with the same
// conditional-write semantics as the remote backends. Nothing survives a
// restart; it exists for local development.
func NewMemoryDocumentStore() DocumentStore {
	return &memoryDocumentStore{}
}

func (s *memoryDocumentStore) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransientError{Op: "fetch document", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil, ErrDocumentNotFound
	}

	content := make([]byte, len(s.content))
	copy(content, s.content)
	return &Document{Content: content, Revision: strconv.Itoa(s.revision)}, nil
}

func (s *memoryDocumentStore) Write(ctx context.Context, content []byte, previousRevision string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransientError{Op: "write document", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists && previousRevision != strconv.Itoa(s.revision) {
		return "", ErrConflict
	}
	if !s.exists && previousRevision != "" {
		return "", ErrConflict
	}

	s.content = make([]byte, len(content))
	copy(s.content, content)
	s.revision++
	s.exists = true

	return strconv.Itoa(s.revision), nil
}
