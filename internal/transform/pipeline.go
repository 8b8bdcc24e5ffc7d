// Package transform routes submitted note content through the external
// obfuscation and filtering services.
//
// Every failure is fail-open: the caller always gets text back, either the
// transformed result or the original input.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Classification int

const (
	PlainText Classification = iota
	ScriptLike
)

func (c Classification) String() string {
	if c == ScriptLike {
		return "script"
	}
	return "plain"
}

// scriptMarkers are matched case-insensitively. This is a substring
// heuristic, not a parser: prose mentioning "game" is classified as script
// and scripts avoiding both words are not.
var scriptMarkers = []string{"game", "script"}

func Classify(text string) Classification {
	lower := strings.ToLower(text)
	for _, marker := range scriptMarkers {
		if strings.Contains(lower, marker) {
			return ScriptLike
		}
	}
	return PlainText
}

type Options struct {
	ObfuscatorURL string
	FilterURL     string
	Timeout       time.Duration
}

type Pipeline struct {
	obfuscatorURL string
	filterURL     string
	client        *http.Client
	logger        *slog.Logger
}

func NewPipeline(opts Options, logger *slog.Logger) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		obfuscatorURL: opts.ObfuscatorURL,
		filterURL:     opts.FilterURL,
		client:        &http.Client{Timeout: opts.Timeout},
		logger:        logger,
	}
}

// Process classifies text and transforms it accordingly.
func (p *Pipeline) Process(ctx context.Context, text string) string {
	return p.Transform(ctx, text, Classify(text))
}

// Transform calls the service matching class exactly once and returns its
// result, or text unchanged on any failure.
func (p *Pipeline) Transform(ctx context.Context, text string, class Classification) string {
	var (
		endpoint string
		request  any
		field    string
	)

	switch class {
	case ScriptLike:
		endpoint, request, field = p.obfuscatorURL, map[string]string{"script": text}, "obfuscated"
	default:
		endpoint, request, field = p.filterURL, map[string]string{"text": text}, "filtered"
	}

	if endpoint == "" {
		return text
	}

	result, err := p.call(ctx, endpoint, request, field)
	if err != nil {
		p.logger.Warn("content transformation failed, keeping original",
			"classification", class.String(),
			"endpoint", endpoint,
			"error", err,
		)
		return text
	}

	return result
}

func (p *Pipeline) call(ctx context.Context, endpoint string, request any, field string) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("undecodable response: %w", err)
	}

	raw, ok := payload[field]
	if !ok {
		return "", fmt.Errorf("response has no %q field", field)
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("field %q is not a string: %w", field, err)
	}
	if result == "" {
		return "", fmt.Errorf("field %q is empty", field)
	}

	return result, nil
}
