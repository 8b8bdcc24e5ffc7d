package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-kivik/kivik/v4"
)

const defaultCouchDocID = "notes"

type couchDocumentStore struct {
	client *kivik.Client
	dbName string
	docID  string
	logger *slog.Logger
}

// couchDocument wraps the encoded notes. encoding/json stores Content as
// base64, matching what the GitHub backend keeps on disk.
type couchDocument struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Content   []byte    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCouchDocumentStore keeps the notes document as a single CouchDB
// document. CouchDB's _rev is the revision token and Put rejects stale
// revisions with 409.
func NewCouchDocumentStore(client *kivik.Client, dbName, docID string, logger *slog.Logger) DocumentStore {
	if docID == "" {
		docID = defaultCouchDocID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &couchDocumentStore{
		client: client,
		dbName: dbName,
		docID:  docID,
		logger: logger,
	}
}

func (s *couchDocumentStore) Fetch(ctx context.Context) (*Document, error) {
	db := s.client.DB(s.dbName)

	var doc couchDocument
	if err := db.Get(ctx, s.docID).ScanDoc(&doc); err != nil {
		switch status := kivik.HTTPStatus(err); {
		case status == http.StatusNotFound:
			return nil, ErrDocumentNotFound
		case status == 0 || isTransientStatus(status):
			return nil, &TransientError{Op: "fetch document", StatusCode: status, Err: err}
		default:
			return nil, &RemoteReadError{StatusCode: status, Body: err.Error()}
		}
	}

	s.logger.Debug("fetched notes document", "db", s.dbName, "doc", s.docID, "rev", doc.Rev)

	return &Document{Content: doc.Content, Revision: doc.Rev}, nil
}

func (s *couchDocumentStore) Write(ctx context.Context, content []byte, previousRevision string) (string, error) {
	db := s.client.DB(s.dbName)

	doc := couchDocument{
		ID:        s.docID,
		Rev:       previousRevision,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}

	rev, err := db.Put(ctx, s.docID, doc)
	if err != nil {
		switch status := kivik.HTTPStatus(err); {
		// Without a rev CouchDB also answers 409 when the document already
		// exists, which is the lost creation race.
		case status == http.StatusConflict:
			return "", fmt.Errorf("%w: %v", ErrConflict, err)
		case status == 0 || isTransientStatus(status):
			return "", &TransientError{Op: "write document", StatusCode: status, Err: err}
		default:
			return "", &RemoteWriteError{StatusCode: status, Body: err.Error()}
		}
	}

	s.logger.Debug("wrote notes document", "db", s.dbName, "doc", s.docID, "previous_rev", previousRevision, "rev", rev)

	return rev, nil
}
