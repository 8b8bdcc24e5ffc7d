package service

import (
	"strings"

	"notes-publisher/internal/domain"
)

const (
	DefaultVisibilityMarker = "roblox"
	RedactedPlaceholder     = "Content hidden"
)

// VisibilityGate decides whether a reader sees note content. The client
// identifier is whatever the client chose to send (its User-Agent), so any
// client can claim the marker: this hides content from casual browsing and
// is not an access control.
type VisibilityGate struct {
	marker string
}

func NewVisibilityGate(marker string) *VisibilityGate {
	return &VisibilityGate{marker: strings.ToLower(marker)}
}

// IsContentVisible reports whether clientID contains the allow marker,
// ignoring case. An empty marker never matches.
func (g *VisibilityGate) IsContentVisible(clientID string) bool {
	if g.marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(clientID), g.marker)
}

// Present returns the note with its content replaced by RedactedPlaceholder
// unless visible. The title is always shown.
func (g *VisibilityGate) Present(note *domain.Note, visible bool) *domain.PresentedNote {
	content := RedactedPlaceholder
	if visible {
		content = note.Content
	}

	return &domain.PresentedNote{
		ID:             note.ID,
		Title:          note.Title,
		Content:        content,
		CreatedAt:      note.CreatedAt,
		ContentVisible: visible,
	}
}
