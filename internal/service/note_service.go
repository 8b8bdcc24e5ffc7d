package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"notes-publisher/internal/codec"
	"notes-publisher/internal/domain"
	"notes-publisher/internal/repository"
	"notes-publisher/pkg/hash"

	"github.com/google/uuid"
)

// ContentTransformer rewrites submitted content before it is stored. It
// never fails; on error it returns its input.
type ContentTransformer interface {
	Process(ctx context.Context, text string) string
}

// NoteNotifier is told about every note that was persisted.
type NoteNotifier interface {
	NoteCreated(note *domain.Note) error
}

type NoteServiceConfig struct {
	PostSecret string

	// ConflictRetries is how many times Create reloads the document and
	// re-applies the new note after losing a write race. Zero surfaces the
	// first conflict.
	ConflictRetries int
}

type NoteService struct {
	store       repository.DocumentStore
	transformer ContentTransformer
	gate        *VisibilityGate
	cfg         NoteServiceConfig
	notifier    NoteNotifier
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewNoteService(
	store repository.DocumentStore,
	transformer ContentTransformer,
	gate *VisibilityGate,
	cfg NoteServiceConfig,
	logger *slog.Logger,
) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	return &NoteService{
		store:       store,
		transformer: transformer,
		gate:        gate,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

func (s *NoteService) SetNotifier(notifier NoteNotifier) {
	s.notifier = notifier
}

// noteSession is the document state loaded for a single request. It is
// never kept between requests.
type noteSession struct {
	notes    []*domain.Note
	revision string
}

func (sess *noteSession) find(id string) *domain.Note {
	for _, n := range sess.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (s *NoteService) load(ctx context.Context) (*noteSession, error) {
	doc, err := s.store.Fetch(ctx)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return &noteSession{notes: []*domain.Note{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	notes, err := codec.Decode(doc.Content)
	if err != nil {
		s.logger.Error("notes document is corrupt", "revision", doc.Revision, "error", err)
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	return &noteSession{notes: notes, revision: doc.Revision}, nil
}

func (s *NoteService) persist(ctx context.Context, sess *noteSession) error {
	data, err := codec.Encode(sess.notes)
	if err != nil {
		return err
	}

	revision, err := s.store.Write(ctx, data, sess.revision)
	if err != nil {
		return fmt.Errorf("failed to persist notes: %w", err)
	}

	sess.revision = revision
	return nil
}

// List returns every note ordered by creation time, oldest first. The stored
// mapping carries no order, so it is rebuilt from createdAt with the id as
// tie-breaker.
func (s *NoteService) List(ctx context.Context) ([]*domain.NoteSummary, error) {
	sess, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]*domain.Note, len(sess.notes))
	copy(notes, sess.notes)
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})

	summaries := make([]*domain.NoteSummary, 0, len(notes))
	for _, n := range notes {
		summaries = append(summaries, &domain.NoteSummary{
			ID:        n.ID,
			Title:     n.Title,
			CreatedAt: n.CreatedAt,
		})
	}

	return summaries, nil
}

// Get returns a single note with the visibility gate applied for clientID.
func (s *NoteService) Get(ctx context.Context, noteID, clientID string) (*domain.PresentedNote, error) {
	sess, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	note := sess.find(noteID)
	if note == nil {
		return nil, ErrNoteNotFound
	}

	return s.gate.Present(note, s.gate.IsContentVisible(clientID)), nil
}

// Create validates and authorizes the submission, transforms its content,
// appends it to the freshly loaded document and writes the document back
// conditioned on the revision it was loaded at.
func (s *NoteService) Create(ctx context.Context, req *domain.CreateNoteRequest) (*domain.Note, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Content) == "" {
		return nil, ErrValidation
	}

	if !hash.CheckSecret(s.cfg.PostSecret, req.Password) {
		return nil, ErrUnauthorized
	}

	note := &domain.Note{
		Title:     title,
		Content:   s.transformer.Process(ctx, req.Content),
		CreatedAt: s.now().UTC(),
	}

	for attempt := 0; ; attempt++ {
		err := s.appendAndPersist(ctx, note)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrConflict) || attempt >= s.cfg.ConflictRetries {
			if errors.Is(err, ErrConflict) {
				s.logger.Warn("note submission lost a concurrent write", "attempts", attempt+1)
			}
			return nil, err
		}
		s.logger.Info("notes document changed concurrently, reloading", "attempt", attempt+1)
	}

	s.logger.Info("note created", "id", note.ID, "title", note.Title)

	if s.notifier != nil {
		if err := s.notifier.NoteCreated(note); err != nil {
			s.logger.Warn("failed to notify note creation", "id", note.ID, "error", err)
		}
	}

	return note, nil
}

func (s *NoteService) appendAndPersist(ctx context.Context, note *domain.Note) error {
	sess, err := s.load(ctx)
	if err != nil {
		return err
	}

	note.ID = s.newID()
	for sess.find(note.ID) != nil {
		note.ID = s.newID()
	}

	sess.notes = append(sess.notes, note)

	return s.persist(ctx, sess)
}
