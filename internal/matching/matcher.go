// Package matching extracts verbatim evidence linking each candidate
// profile to the job's must-have requirements.
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-sourcer/internal/llm"
	"github.com/jonathan/candidate-sourcer/internal/prompts"
	"github.com/jonathan/candidate-sourcer/internal/schemas"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

// DefaultConcurrency bounds how many candidates are matched against
// the LLM at once.
const DefaultConcurrency = 4

const promptFile = "matching.json"

// Matcher produces one KeyMatchEntry per scored candidate via LLM
// evidence extraction.
type Matcher struct {
	client      llm.Client
	log         *zap.Logger
	concurrency int
}

func NewMatcher(client llm.Client, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{client: client, log: log, concurrency: DefaultConcurrency}
}

// matchesPayload mirrors the JSON shape the model is instructed to
// return.
type matchesPayload struct {
	Matches []struct {
		Requirement string `json:"requirement"`
		Evidence    string `json:"evidence"`
	} `json:"matches"`
}

// Match returns exactly one entry per scored candidate, in input
// order. A per-candidate LLM failure degrades to an empty match list
// so the candidate stays traceable through to the report. The only
// fatal error is context cancellation.
func (m *Matcher) Match(ctx context.Context, req *types.JobRequirements, scored []types.ScoredCandidate, profiles []types.CandidateProfile) ([]types.KeyMatchEntry, error) {
	byURL := make(map[string]types.CandidateProfile, len(profiles))
	for _, p := range profiles {
		byURL[p.LinkedInURL] = p
	}

	system, err := prompts.Get(promptFile, "match-system")
	if err != nil {
		return nil, err
	}
	userTmpl, err := prompts.Get(promptFile, "match-user")
	if err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(struct {
		Title     string   `json:"title"`
		MustHaves []string `json:"must_haves"`
	}{Title: req.Title, MustHaves: req.MustHaves})
	if err != nil {
		return nil, err
	}

	entries := make([]types.KeyMatchEntry, len(scored))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, sc := range scored {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profile := byURL[sc.LinkedInURL]
			matches := m.matchOne(gctx, system, userTmpl, string(reqJSON), &profile, sc.LinkedInURL)
			entries[i] = types.KeyMatchEntry{
				LinkedInURL: sc.LinkedInURL,
				Matches:     matches,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// matchOne asks the model for evidence on a single candidate. Any
// failure (adapter, schema, parse) yields an empty list.
func (m *Matcher) matchOne(ctx context.Context, system, userTmpl, reqJSON string, profile *types.CandidateProfile, url string) []types.KeyMatch {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		m.log.Warn("failed to encode profile, skipping evidence", zap.String("url", url), zap.Error(err))
		return []types.KeyMatch{}
	}

	user := prompts.Format(userTmpl, map[string]string{
		"Requirements": reqJSON,
		"Profile":      string(profileJSON),
	})

	response, err := m.client.CompleteJSON(ctx, system, user, llm.TierStandard, nil)
	if err != nil {
		m.log.Warn("evidence extraction failed", zap.String("url", url), zap.Error(err))
		return []types.KeyMatch{}
	}

	cleaned := llm.CleanJSONBlock(response)
	if err := schemas.Validate(schemas.Matches, cleaned); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			m.log.Warn("evidence response failed schema validation", zap.String("url", url), zap.Error(err))
		} else {
			m.log.Warn("evidence response unusable", zap.String("url", url), zap.Error(err))
		}
		return []types.KeyMatch{}
	}

	var payload matchesPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		m.log.Warn("failed to decode evidence response", zap.String("url", url), zap.Error(err))
		return []types.KeyMatch{}
	}

	matches := make([]types.KeyMatch, 0, len(payload.Matches))
	for _, km := range payload.Matches {
		requirement := strings.TrimSpace(km.Requirement)
		evidence := strings.TrimSpace(km.Evidence)
		if requirement == "" || evidence == "" {
			continue
		}
		matches = append(matches, types.KeyMatch{
			Requirement: requirement,
			Evidence:    evidence,
		})
	}
	return matches
}
