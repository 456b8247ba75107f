package types

import (
	"github.com/go-playground/validator/v10"
)

// CandidateProfile represents a sourced candidate. The profile URL is the
// uniqueness key: the sourcing stage deduplicates by it before returning.
type CandidateProfile struct {
	Name        string   `json:"name" validate:"required"`
	LinkedInURL string   `json:"linkedin_url" validate:"required"`
	Headline    string   `json:"headline,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// Validate checks the structural invariants of the CandidateProfile.
func (c *CandidateProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// ScoredCandidate is a relevance-scored candidate entry. FeatureWeights
// records the named signals that produced the score, for explainability.
type ScoredCandidate struct {
	LinkedInURL    string             `json:"linkedin_url" validate:"required"`
	Score          int                `json:"score" validate:"gte=0,lte=100"`
	FeatureWeights map[string]float64 `json:"feature_weights,omitempty"`
}

// Validate checks the structural invariants of the ScoredCandidate.
func (s *ScoredCandidate) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
