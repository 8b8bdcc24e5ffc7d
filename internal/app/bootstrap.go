// Package app assembles the note service from configuration. It is shared by
// the HTTP server and the notectl command line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"notes-publisher/internal/config"
	"notes-publisher/internal/repository"
	"notes-publisher/internal/service"
	"notes-publisher/internal/transform"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

// OpenStore returns the document store selected by cfg.Store.Backend. For
// CouchDB the database is created when missing.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.DocumentStore, error) {
	switch cfg.Store.Backend {
	case config.BackendGitHub:
		return repository.NewGitHubDocumentStore(repository.GitHubOptions{
			APIURL:        cfg.GitHub.APIURL,
			Token:         cfg.GitHub.Token,
			Owner:         cfg.GitHub.Owner,
			Repo:          cfg.GitHub.Repo,
			Branch:        cfg.GitHub.Branch,
			Path:          cfg.GitHub.Path,
			CommitMessage: cfg.GitHub.CommitMessage,
			Timeout:       cfg.GitHub.Timeout,
		}, logger), nil

	case config.BackendCouchDB:
		client, err := kivik.New("couch", cfg.CouchDB.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
		}

		exists, err := client.DBExists(ctx, cfg.CouchDB.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check database existence: %w", err)
		}

		if !exists {
			if err := client.CreateDB(ctx, cfg.CouchDB.Name); err != nil {
				return nil, fmt.Errorf("failed to create database: %w", err)
			}
			logger.Info("created database", "name", cfg.CouchDB.Name)
		}

		return repository.NewCouchDocumentStore(client, cfg.CouchDB.Name, cfg.CouchDB.DocID, logger), nil

	case config.BackendMemory:
		logger.Warn("using in-memory note store, notes are lost on exit")
		return repository.NewMemoryDocumentStore(), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewNoteService wires the transformation pipeline and visibility gate
// around store.
func NewNoteService(cfg *config.Config, store repository.DocumentStore, logger *slog.Logger) *service.NoteService {
	pipeline := transform.NewPipeline(transform.Options{
		ObfuscatorURL: cfg.Transform.ObfuscatorURL,
		FilterURL:     cfg.Transform.FilterURL,
		Timeout:       cfg.Transform.Timeout,
	}, logger)

	return service.NewNoteService(
		store,
		pipeline,
		service.NewVisibilityGate(cfg.Notes.VisibilityMarker),
		service.NoteServiceConfig{
			PostSecret:      cfg.Notes.PostPassword,
			ConflictRetries: cfg.Notes.ConflictRetries,
		},
		logger,
	)
}
