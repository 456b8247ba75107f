package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/llm"
)

// fakeClient returns a canned response or error for every completion call.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(_ context.Context, _, _ string, _ llm.ModelTier, _ *llm.CallOptions) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeClient) CompleteJSON(_ context.Context, _, _ string, _ llm.ModelTier, _ *llm.CallOptions) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

const sampleJD = "Senior Python Developer - Remote\nRequired: Python, Django"

func TestIngestValidResponse(t *testing.T) {
	client := &fakeClient{
		response: `{"title": "Senior Python Developer", "must_haves": ["Python", "Django"], "nice_to_haves": [], "seniority": null, "location": "Remote"}`,
	}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), sampleJD, nil)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer", req.Title)
	assert.Equal(t, []string{"Python", "Django"}, req.MustHaves)
	assert.Empty(t, req.NiceToHaves)
	assert.Equal(t, "Remote", req.Location)
	assert.Equal(t, sampleJD, req.RawText)
}

func TestIngestFencedResponse(t *testing.T) {
	client := &fakeClient{
		response: "```json\n{\"title\": \"Data Engineer\", \"must_haves\": [\"SQL\"]}\n```",
	}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), sampleJD, nil)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", req.Title)
	assert.Equal(t, []string{"SQL"}, req.MustHaves)
}

func TestIngestInvalidJSONFallsBack(t *testing.T) {
	client := &fakeClient{response: "I could not produce JSON, sorry!"}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), sampleJD, nil)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer - Remote", req.Title)
	assert.Empty(t, req.MustHaves)
	assert.Empty(t, req.NiceToHaves)
}

func TestIngestAdapterErrorFallsBack(t *testing.T) {
	client := &fakeClient{err: errors.New("backend unavailable")}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), sampleJD, nil)
	require.NoError(t, err)
	assert.Equal(t, "Senior Python Developer - Remote", req.Title)
}

func TestIngestEmptyWellFormedResponseIsFatal(t *testing.T) {
	// A structurally valid but semantically empty response must fail
	// validation rather than being silently defaulted.
	client := &fakeClient{response: `{}`}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), sampleJD, nil)
	assert.Nil(t, req)
	var ve *ValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ve))
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "first non-empty line",
			input: "\n\n  Backend Engineer (Go)  \nmore text",
			want:  "Backend Engineer (Go)",
		},
		{
			name:  "empty input uses placeholder",
			input: "",
			want:  "Untitled",
		},
		{
			name:  "whitespace-only input uses placeholder",
			input: "  \n\t\n ",
			want:  "Untitled",
		},
		{
			name:  "long line truncated to 120 runes",
			input: strings.Repeat("x", 300),
			want:  strings.Repeat("x", 120),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackTitle(tt.input))
		})
	}
}

func TestIngestEmptyInputWithFailingAdapter(t *testing.T) {
	client := &fakeClient{err: errors.New("down")}
	ing := NewIngestor(client, zap.NewNop())

	req, err := ing.Ingest(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Untitled", req.Title)
	assert.NoError(t, req.Validate())
}
