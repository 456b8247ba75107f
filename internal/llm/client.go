package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CallOptions carries per-request overrides recognised by the adapter.
type CallOptions struct {
	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float32
}

// Client is the chat-completion contract the pipeline stages depend on.
// A request is a system instruction plus a user payload; the response is
// raw text which may be wrapped in a markdown code fence.
type Client interface {
	// Complete generates a text completion.
	Complete(ctx context.Context, system, user string, tier ModelTier, opts *CallOptions) (string, error)
	// CompleteJSON generates a completion in JSON mode and strips any
	// markdown code-fence wrapper from the response.
	CompleteJSON(ctx context.Context, system, user string, tier ModelTier, opts *CallOptions) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini-backed client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// Complete generates a text completion for the given tier.
func (c *GeminiClient) Complete(ctx context.Context, system, user string, tier ModelTier, opts *CallOptions) (string, error) {
	return c.generate(ctx, system, user, tier, opts, false)
}

// CompleteJSON generates a completion in JSON mode and strips any markdown
// code-fence wrapper from the response.
func (c *GeminiClient) CompleteJSON(ctx context.Context, system, user string, tier ModelTier, opts *CallOptions) (string, error) {
	text, err := c.generate(ctx, system, user, tier, opts, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, system, user string, tier ModelTier, opts *CallOptions, jsonMode bool) (string, error) {
	modelName := c.config.Model(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	timeout := c.config.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // low temperature for consistent structured output
	if opts != nil && opts.Temperature != nil {
		model.SetTemperature(*opts.Temperature)
	}
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
