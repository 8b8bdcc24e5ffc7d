package repository

import (
	"context"
	"errors"
	"fmt"
)

// Document is the raw notes document together with the revision token the
// backing store assigned to it.
type Document struct {
	Content  []byte
	Revision string
}

// DocumentStore reads and writes the single notes document. Implementations
// are stateless: the caller must thread the revision returned by Fetch into
// the Write that follows it.
type DocumentStore interface {
	// Fetch returns ErrDocumentNotFound when no document has been written yet.
	Fetch(ctx context.Context) (*Document, error)

	// Write stores content. A non-empty previousRevision makes the write
	// conditional and yields ErrConflict when the document changed since that
	// revision was observed. It returns the new revision.
	Write(ctx context.Context, content []byte, previousRevision string) (string, error)
}

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrConflict         = errors.New("document was modified concurrently")
	ErrTransient        = errors.New("transient remote error")
)

// TransientError covers network failures and 5xx responses.
type TransientError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// RemoteWriteError is returned when the backing store rejects a write for a
// reason other than a revision mismatch. Body holds the raw diagnostic payload.
type RemoteWriteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write rejected: status %d: %s", e.StatusCode, e.Body)
}

// RemoteReadError is returned when a fetch is rejected with a non-transient
// status, e.g. a bad access token.
type RemoteReadError struct {
	StatusCode int
	Body       string
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("remote read rejected: status %d: %s", e.StatusCode, e.Body)
}
