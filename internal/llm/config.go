// Package llm provides the chat-completion adapter used by the extraction,
// matching and pitching stages.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for simple tasks: classification, short extraction.
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured extraction.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: evidence matching, outreach copy.
	TierAdvanced ModelTier = "advanced"
)

// DefaultCallTimeout bounds a single chat-completion request so a hung
// backend cannot stall the pipeline. A timeout is a classified adapter
// failure and feeds into the retry policy like any other.
const DefaultCallTimeout = 60 * time.Second

// Config holds the model configuration for the application.
type Config struct {
	Models      map[ModelTier]string
	CallTimeout time.Duration
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		CallTimeout: DefaultCallTimeout,
	}
}

// Model returns the model name for a tier, falling back through standard
// and lite when the requested tier is not configured.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
