package pitching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/llm"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

type scriptedClient struct {
	respond func(user string) (string, error)
	calls   int
}

func (c *scriptedClient) Complete(_ context.Context, _, user string, _ llm.ModelTier, _ *llm.CallOptions) (string, error) {
	c.calls++
	return c.respond(user)
}

func (c *scriptedClient) CompleteJSON(_ context.Context, _, user string, _ llm.ModelTier, _ *llm.CallOptions) (string, error) {
	c.calls++
	return c.respond(user)
}

func (c *scriptedClient) Close() error { return nil }

func pitchInput() (*types.JobRequirements, []types.KeyMatchEntry, []types.CandidateProfile) {
	req := &types.JobRequirements{Title: "Senior Python Developer", MustHaves: []string{"Python"}}
	entries := []types.KeyMatchEntry{
		{
			LinkedInURL: "https://www.linkedin.com/in/jane",
			Matches:     []types.KeyMatch{{Requirement: "Python", Evidence: "8 years of Python"}},
		},
		{
			LinkedInURL: "https://www.linkedin.com/in/bob",
			Matches:     []types.KeyMatch{},
		},
	}
	profiles := []types.CandidateProfile{
		{Name: "Jane Doe", LinkedInURL: "https://www.linkedin.com/in/jane"},
		{Name: "Bob Smith", LinkedInURL: "https://www.linkedin.com/in/bob"},
	}
	return req, entries, profiles
}

const validPitch = `{"cold_call": "Hi Jane, quick call about a role.", "dm_message": "Hi Jane, saw your Python work.", "whatsapp_message": "Hi Jane, quick role question."}`

func TestPitchPersonalizedAndGeneric(t *testing.T) {
	client := &scriptedClient{respond: func(string) (string, error) {
		return validPitch, nil
	}}
	p := NewPitcher(client, zap.NewNop())

	req, entries, profiles := pitchInput()
	out, err := p.Pitch(context.Background(), req, entries, profiles)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Personalized copy for the candidate with evidence.
	assert.Equal(t, "Hi Jane, quick call about a role.", out[0].ColdCall)
	assert.NoError(t, out[0].Validate())

	// Empty evidence skips the LLM and renders generic templates.
	assert.Equal(t, 1, client.calls)
	assert.Contains(t, out[1].ColdCall, "Bob Smith")
	assert.Contains(t, out[1].ColdCall, "Senior Python Developer")
	assert.NoError(t, out[1].Validate())
}

func TestPitchAdapterFailureFallsBackToGeneric(t *testing.T) {
	client := &scriptedClient{respond: func(string) (string, error) {
		return "", errors.New("backend down")
	}}
	p := NewPitcher(client, zap.NewNop())

	req, entries, profiles := pitchInput()
	out, err := p.Pitch(context.Background(), req, entries, profiles)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, pm := range out {
		assert.NoError(t, pm.Validate())
		assert.NotEmpty(t, pm.ColdCall)
		assert.NotEmpty(t, pm.DMMessage)
		assert.NotEmpty(t, pm.WhatsAppMessage)
	}
	assert.Contains(t, out[0].DMMessage, "Jane Doe")
}

func TestPitchInvalidResponseFallsBackToGeneric(t *testing.T) {
	client := &scriptedClient{respond: func(string) (string, error) {
		// Missing whatsapp_message fails schema validation.
		return `{"cold_call": "x", "dm_message": "y"}`, nil
	}}
	p := NewPitcher(client, zap.NewNop())

	req, entries, profiles := pitchInput()
	out, err := p.Pitch(context.Background(), req, entries, profiles)
	require.NoError(t, err)
	assert.Contains(t, out[0].WhatsAppMessage, "Jane Doe")
}

func TestPitchWhitespaceOnlyResponseFallsBackToGeneric(t *testing.T) {
	// Passes the schema's minLength but trims to empty strings.
	client := &scriptedClient{respond: func(string) (string, error) {
		return `{"cold_call": " ", "dm_message": " ", "whatsapp_message": " "}`, nil
	}}
	p := NewPitcher(client, zap.NewNop())

	req, entries, profiles := pitchInput()
	out, err := p.Pitch(context.Background(), req, entries, profiles)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, pm := range out {
		assert.NoError(t, pm.Validate())
		assert.NotEmpty(t, pm.ColdCall)
		assert.NotEmpty(t, pm.DMMessage)
		assert.NotEmpty(t, pm.WhatsAppMessage)
	}
	assert.Contains(t, out[0].ColdCall, "Jane Doe")
}

func TestPitchUnknownProfileStillGetsCopy(t *testing.T) {
	client := &scriptedClient{respond: func(string) (string, error) {
		return "", errors.New("down")
	}}
	p := NewPitcher(client, zap.NewNop())

	req := &types.JobRequirements{Title: "Engineer", MustHaves: []string{"Go"}}
	entries := []types.KeyMatchEntry{{LinkedInURL: "https://www.linkedin.com/in/ghost"}}

	out, err := p.Pitch(context.Background(), req, entries, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0].ColdCall, "Hi there"))
	assert.NoError(t, out[0].Validate())
}

func TestPitchCancelledContext(t *testing.T) {
	client := &scriptedClient{respond: func(string) (string, error) {
		return validPitch, nil
	}}
	p := NewPitcher(client, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, entries, profiles := pitchInput()
	_, err := p.Pitch(ctx, req, entries, profiles)
	assert.ErrorIs(t, err, context.Canceled)
}
