// Package types provides type definitions for structured data exchanged
// between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// JobRequirements represents a structured job description extracted from raw text.
type JobRequirements struct {
	Title       string   `json:"title" validate:"required"`
	MustHaves   []string `json:"must_haves"`
	NiceToHaves []string `json:"nice_to_haves,omitempty"`
	Seniority   string   `json:"seniority,omitempty"`
	Location    string   `json:"location,omitempty"`

	// RawText retains the original input for fallback diagnostics.
	RawText string `json:"raw_text,omitempty"`
}

// Validate checks the structural invariants of the JobRequirements.
func (j *JobRequirements) Validate() error {
	validate := validator.New()
	return validate.Struct(j)
}
