// Package pitching generates channel-specific outreach copy for each
// matched candidate.
package pitching

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-sourcer/internal/llm"
	"github.com/jonathan/candidate-sourcer/internal/prompts"
	"github.com/jonathan/candidate-sourcer/internal/schemas"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

// DefaultConcurrency bounds concurrent LLM calls across candidates.
const DefaultConcurrency = 4

const promptFile = "pitching.json"

// Pitcher writes three outreach messages per candidate: a cold-call
// script, a LinkedIn DM, and a short WhatsApp message. Candidates with
// no matching evidence, or whose LLM call fails, get deterministic
// generic copy instead of an error.
type Pitcher struct {
	client      llm.Client
	log         *zap.Logger
	concurrency int
}

func NewPitcher(client llm.Client, log *zap.Logger) *Pitcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pitcher{client: client, log: log, concurrency: DefaultConcurrency}
}

type pitchPayload struct {
	ColdCall        string `json:"cold_call"`
	DMMessage       string `json:"dm_message"`
	WhatsAppMessage string `json:"whatsapp_message"`
}

// Pitch returns one PitchMaterials per match entry, in input order.
// The only fatal error is context cancellation.
func (p *Pitcher) Pitch(ctx context.Context, req *types.JobRequirements, entries []types.KeyMatchEntry, profiles []types.CandidateProfile) ([]types.PitchMaterials, error) {
	byURL := make(map[string]types.CandidateProfile, len(profiles))
	for _, prof := range profiles {
		byURL[prof.LinkedInURL] = prof
	}

	out := make([]types.PitchMaterials, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profile := byURL[entry.LinkedInURL]
			out[i] = p.pitchOne(gctx, req, &entry, &profile)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pitcher) pitchOne(ctx context.Context, req *types.JobRequirements, entry *types.KeyMatchEntry, profile *types.CandidateProfile) types.PitchMaterials {
	name := profile.Name
	if name == "" {
		name = "there"
	}

	// Sparse evidence gets generic copy without burning an LLM call.
	if len(entry.Matches) == 0 {
		return genericPitch(entry.LinkedInURL, name, req.Title)
	}

	payload, err := p.generate(ctx, req.Title, name, entry.Matches)
	if err != nil {
		p.log.Warn("pitch generation failed, using generic copy",
			zap.String("url", entry.LinkedInURL),
			zap.Error(err))
		return genericPitch(entry.LinkedInURL, name, req.Title)
	}

	pm := types.PitchMaterials{
		LinkedInURL:     entry.LinkedInURL,
		ColdCall:        strings.TrimSpace(payload.ColdCall),
		DMMessage:       strings.TrimSpace(payload.DMMessage),
		WhatsAppMessage: strings.TrimSpace(payload.WhatsAppMessage),
	}
	// Whitespace-only messages survive schema validation but trim to
	// empty; a record with any blank channel must not reach the report.
	if err := pm.Validate(); err != nil {
		p.log.Warn("pitch response has blank messages, using generic copy",
			zap.String("url", entry.LinkedInURL),
			zap.Error(err))
		return genericPitch(entry.LinkedInURL, name, req.Title)
	}
	return pm
}

func (p *Pitcher) generate(ctx context.Context, title, name string, matches []types.KeyMatch) (*pitchPayload, error) {
	system, err := prompts.Get(promptFile, "pitch-system")
	if err != nil {
		return nil, err
	}
	userTmpl, err := prompts.Get(promptFile, "pitch-user")
	if err != nil {
		return nil, err
	}

	matchesJSON, err := json.Marshal(matches)
	if err != nil {
		return nil, err
	}

	user := prompts.Format(userTmpl, map[string]string{
		"Title":   title,
		"Name":    name,
		"Matches": string(matchesJSON),
	})

	response, err := p.client.CompleteJSON(ctx, system, user, llm.TierAdvanced, nil)
	if err != nil {
		return nil, err
	}

	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.Pitch, cleaned); err != nil {
		return nil, err
	}

	var payload pitchPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// genericPitch renders the non-personalized fallback templates.
func genericPitch(url, name, title string) types.PitchMaterials {
	data := map[string]string{"Name": name, "Title": title}
	return types.PitchMaterials{
		LinkedInURL:     url,
		ColdCall:        prompts.Format(prompts.MustGet(promptFile, "generic-cold-call"), data),
		DMMessage:       prompts.Format(prompts.MustGet(promptFile, "generic-dm"), data),
		WhatsAppMessage: prompts.Format(prompts.MustGet(promptFile, "generic-whatsapp"), data),
	}
}
