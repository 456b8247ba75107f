// Package ingestion converts raw job-description text into validated
// JobRequirements via LLM extraction, with a heuristic fallback when the
// adapter is unavailable or returns unparseable output.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/llm"
	"github.com/jonathan/candidate-sourcer/internal/prompts"
	"github.com/jonathan/candidate-sourcer/internal/schemas"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

const (
	// titleMaxLen bounds the fallback title derived from the input text.
	titleMaxLen = 120
	// fallbackTitle is used when the input has no non-empty line at all.
	fallbackTitle = "Untitled"
)

// Ingestor is the extraction stage: raw text in, JobRequirements out.
type Ingestor struct {
	client llm.Client
	log    *zap.Logger
}

// NewIngestor creates the extraction stage around a chat-completion client.
func NewIngestor(client llm.Client, log *zap.Logger) *Ingestor {
	return &Ingestor{client: client, log: log}
}

// requirementsPayload mirrors the JSON shape requested from the adapter.
type requirementsPayload struct {
	Title       string   `json:"title"`
	MustHaves   []string `json:"must_haves"`
	NiceToHaves []string `json:"nice_to_haves"`
	Seniority   string   `json:"seniority"`
	Location    string   `json:"location"`
}

// Ingest extracts structured requirements from jobText. Adapter failures and
// unparseable responses degrade to a heuristic result; a well-formed response
// that misses required fields is a validation failure, not a default.
func (i *Ingestor) Ingest(ctx context.Context, jobText string, temperature *float32) (*types.JobRequirements, error) {
	system := prompts.MustGet("ingestion.json", "extract-system")
	user := prompts.Format(prompts.MustGet("ingestion.json", "extract-user"), map[string]string{
		"JobText": jobText,
	})

	var opts *llm.CallOptions
	if temperature != nil {
		opts = &llm.CallOptions{Temperature: temperature}
	}

	responseText, err := i.client.CompleteJSON(ctx, system, user, llm.TierStandard, opts)
	if err != nil {
		i.log.Warn("extraction adapter failed, using heuristic fallback", zap.Error(err))
		return i.fallback(jobText)
	}

	// The adapter sometimes wraps JSON in a code fence despite JSON mode.
	responseText = llm.CleanJSONBlock(responseText)

	if err := schemas.Validate(schemas.Requirements, responseText); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			// Well-formed JSON that violates the schema (e.g. {}) must not
			// be silently defaulted.
			return nil, &ValidationError{Field: "title", Message: "adapter response is missing required fields", Cause: ve}
		}
		i.log.Warn("extraction response is not valid JSON, using heuristic fallback", zap.Error(err))
		return i.fallback(jobText)
	}

	var payload requirementsPayload
	if err := json.Unmarshal([]byte(responseText), &payload); err != nil {
		i.log.Warn("extraction response failed to decode, using heuristic fallback", zap.Error(err))
		return i.fallback(jobText)
	}

	req := &types.JobRequirements{
		Title:       strings.TrimSpace(payload.Title),
		MustHaves:   payload.MustHaves,
		NiceToHaves: payload.NiceToHaves,
		Seniority:   strings.TrimSpace(payload.Seniority),
		Location:    strings.TrimSpace(payload.Location),
		RawText:     jobText,
	}
	if req.MustHaves == nil {
		req.MustHaves = []string{}
	}
	if req.NiceToHaves == nil {
		req.NiceToHaves = []string{}
	}

	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "title", Message: "extracted requirements failed validation", Cause: err}
	}

	i.log.Debug("extracted job requirements",
		zap.String("title", req.Title),
		zap.Int("must_haves", len(req.MustHaves)),
		zap.Int("nice_to_haves", len(req.NiceToHaves)),
	)
	return req, nil
}

// fallback derives minimal requirements from the raw text: the first
// non-empty line becomes the title, everything else stays empty.
func (i *Ingestor) fallback(jobText string) (*types.JobRequirements, error) {
	title := FallbackTitle(jobText)

	req := &types.JobRequirements{
		Title:       title,
		MustHaves:   []string{},
		NiceToHaves: []string{},
		RawText:     jobText,
	}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "title", Message: "fallback requirements failed validation", Cause: err}
	}

	i.log.Info("heuristic fallback produced requirements", zap.String("title", title))
	return req, nil
}

// FallbackTitle returns the first non-empty line of text truncated to
// titleMaxLen runes, or a fixed placeholder when no such line exists.
func FallbackTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen])
		}
		return line
	}
	return fallbackTitle
}
