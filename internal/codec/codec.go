// Package codec converts a note collection to and from the id-keyed JSON
// document stored in the remote repository.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notes-publisher/internal/domain"
)

var ErrCorruptDocument = errors.New("corrupt notes document")

// entry is a note as stored in the document. The id is the mapping key.
type entry struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	CreatedAt *string `json:"createdAt"`
}

// Encode produces the mapping {id -> {title, content, createdAt}}. Map keys are
// emitted in sorted order, so equal collections encode to equal bytes.
func Encode(notes []*domain.Note) ([]byte, error) {
	doc := make(map[string]entry, len(notes))
	for _, n := range notes {
		if n == nil {
			continue
		}
		if _, dup := doc[n.ID]; dup {
			return nil, fmt.Errorf("duplicate note id %q", n.ID)
		}
		title, content := n.Title, n.Content
		createdAt := n.CreatedAt.UTC().Format(time.RFC3339Nano)
		doc[n.ID] = entry{Title: &title, Content: &content, CreatedAt: &createdAt}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode notes: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode. The order of the returned notes is
// unspecified.
func Decode(data []byte) ([]*domain.Note, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*domain.Note{}, nil
	}

	var doc map[string]*entry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrCorruptDocument)
	}

	notes := make([]*domain.Note, 0, len(doc))
	for id, e := range doc {
		if id == "" {
			return nil, fmt.Errorf("%w: empty note id", ErrCorruptDocument)
		}
		if e == nil || e.Title == nil || e.Content == nil || e.CreatedAt == nil {
			return nil, fmt.Errorf("%w: note %q is missing fields", ErrCorruptDocument, id)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, *e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: note %q has invalid createdAt: %v", ErrCorruptDocument, id, err)
		}
		notes = append(notes, &domain.Note{
			ID:        id,
			Title:     *e.Title,
			Content:   *e.Content,
			CreatedAt: createdAt,
		})
	}

	return notes, nil
}
