package types

import (
	"github.com/go-playground/validator/v10"
)

// KeyMatch maps a single job requirement to candidate evidence.
type KeyMatch struct {
	Requirement string `json:"requirement"`
	Evidence    string `json:"evidence"`
}

// KeyMatchEntry holds the requirement-to-evidence matches for one candidate.
// An empty Matches list is legal: candidates without qualifying evidence stay
// traceable through to the final report instead of being dropped.
type KeyMatchEntry struct {
	LinkedInURL string     `json:"linkedin_url" validate:"required"`
	Matches     []KeyMatch `json:"matches"`
}

// Validate checks the structural invariants of the KeyMatchEntry.
func (k *KeyMatchEntry) Validate() error {
	validate := validator.New()
	return validate.Struct(k)
}

// PitchMaterials is the personalised outreach copy for a single candidate,
// one message per channel.
type PitchMaterials struct {
	LinkedInURL     string `json:"linkedin_url" validate:"required"`
	ColdCall        string `json:"cold_call" validate:"required"`
	DMMessage       string `json:"dm_message" validate:"required"`
	WhatsAppMessage string `json:"whatsapp_message" validate:"required"`
}

// Validate checks the structural invariants of the PitchMaterials.
func (p *PitchMaterials) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// PipelineArtifact is the terminal artifact of a pipeline run.
type PipelineArtifact struct {
	Path string `json:"path"`
}
