package repository

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"notes-publisher/internal/codec"
)

const (
	defaultGitHubAPIURL  = "https://api.github.com"
	defaultCommitMessage = "Update notes"
	defaultUserAgent     = "notes-publisher/1.0"
	maxDiagnosticBody    = 4096
)

type GitHubOptions struct {
	APIURL        string
	Token         string
	Owner         string
	Repo          string
	Branch        string
	Path          string
	CommitMessage string
	UserAgent     string
	Timeout       time.Duration
}

type githubDocumentStore struct {
	opts   GitHubOptions
	client *http.Client
	logger *slog.Logger
}

type githubContentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type githubPutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type githubPutResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// NewGitHubDocumentStore keeps the notes document as a file in a GitHub
// repository through the contents API. The file's blob sha is the revision.
func NewGitHubDocumentStore(opts GitHubOptions, logger *slog.Logger) DocumentStore {
	if opts.APIURL == "" {
		opts.APIURL = defaultGitHubAPIURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if opts.CommitMessage == "" {
		opts.CommitMessage = defaultCommitMessage
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &githubDocumentStore{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}
}

func (s *githubDocumentStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.opts.APIURL,
		url.PathEscape(s.opts.Owner),
		url.PathEscape(s.opts.Repo),
		strings.TrimLeft(s.opts.Path, "/"),
	)
}

func (s *githubDocumentStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if s.opts.Token != "" {
		req.Header.Set("Authorization", "token "+s.opts.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", s.opts.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (s *githubDocumentStore) Fetch(ctx context.Context) (*Document, error) {
	target := s.contentsURL()
	if s.opts.Branch != "" {
		target += "?ref=" + url.QueryEscape(s.opts.Branch)
	}

	req, err := s.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "fetch document", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrDocumentNotFound
	case isTransientStatus(resp.StatusCode):
		return nil, &TransientError{Op: "fetch document", StatusCode: resp.StatusCode, Body: readDiagnostic(resp.Body)}
	case resp.StatusCode != http.StatusOK:
		return nil, &RemoteReadError{StatusCode: resp.StatusCode, Body: readDiagnostic(resp.Body)}
	}

	var payload githubContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransientError{Op: "fetch document", StatusCode: resp.StatusCode, Err: fmt.Errorf("undecodable response: %w", err)}
	}

	if payload.Encoding != "" && payload.Encoding != "base64" {
		return nil, fmt.Errorf("%w: unsupported content encoding %q", codec.ErrCorruptDocument, payload.Encoding)
	}

	// The contents API wraps base64 at 60 columns.
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(payload.Content)
	content, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 content: %v", codec.ErrCorruptDocument, err)
	}

	s.logger.Debug("fetched notes document", "path", s.opts.Path, "sha", payload.SHA, "bytes", len(content))

	return &Document{Content: content, Revision: payload.SHA}, nil
}

func (s *githubDocumentStore) Write(ctx context.Context, content []byte, previousRevision string) (string, error) {
	body, err := json.Marshal(githubPutRequest{
		Message: s.opts.CommitMessage,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.opts.Branch,
		SHA:     previousRevision,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode write request: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build write request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransientError{Op: "write document", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var payload githubPutResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", &TransientError{Op: "write document", StatusCode: resp.StatusCode, Err: fmt.Errorf("undecodable response: %w", err)}
		}
		s.logger.Debug("wrote notes document", "path", s.opts.Path, "previous_sha", previousRevision, "sha", payload.Content.SHA)
		return payload.Content.SHA, nil
	}

	diagnostic := readDiagnostic(resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict:
		return "", fmt.Errorf("%w: %s", ErrConflict, diagnostic)
	// An unconditional write that loses a creation race is rejected because
	// the file now exists and no sha was supplied.
	case resp.StatusCode == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(diagnostic), "sha"):
		return "", fmt.Errorf("%w: %s", ErrConflict, diagnostic)
	case isTransientStatus(resp.StatusCode):
		return "", &TransientError{Op: "write document", StatusCode: resp.StatusCode, Body: diagnostic}
	default:
		return "", &RemoteWriteError{StatusCode: resp.StatusCode, Body: diagnostic}
	}
}

func isTransientStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func readDiagnostic(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxDiagnosticBody))
	return strings.TrimSpace(string(data))
}
