package service

import (
	"errors"

	"notes-publisher/internal/codec"
	"notes-publisher/internal/repository"
)

var (
	ErrValidation   = errors.New("title and content are required")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoteNotFound = errors.New("note not found")

	// ErrConflict means another writer persisted the document first. The
	// submission was not stored and may be retried.
	ErrConflict        = repository.ErrConflict
	ErrCorruptDocument = codec.ErrCorruptDocument
)
