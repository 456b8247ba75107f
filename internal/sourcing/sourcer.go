// Package sourcing turns extracted job requirements into a candidate
// list by querying a people-search backend.
package sourcing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/types"
)

const (
	// DefaultLimit caps how many candidates a single run sources.
	DefaultLimit = 20

	// maxQueryMustHaves bounds how many must-have skills join the
	// search query before it stops improving recall.
	maxQueryMustHaves = 5

	// maxQueryLen keeps the query within what LinkedIn's keyword
	// search handles sensibly.
	maxQueryLen = 180
)

// Searcher is the people-search backend. *linkedin.Client satisfies it.
type Searcher interface {
	SearchPeople(ctx context.Context, query string, limit int) ([]types.CandidateProfile, error)
}

// Sourcer finds candidates matching a set of job requirements.
type Sourcer struct {
	searcher Searcher
	log      *zap.Logger
}

func NewSourcer(searcher Searcher, log *zap.Logger) *Sourcer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sourcer{searcher: searcher, log: log}
}

// Source queries the search backend and returns a deduplicated
// candidate list. A search failure is not fatal: the run continues
// with an empty list so downstream stages still produce a report.
func (s *Sourcer) Source(ctx context.Context, req *types.JobRequirements, limit int) ([]types.CandidateProfile, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := BuildQuery(req)
	s.log.Info("sourcing candidates",
		zap.String("query", query),
		zap.Int("limit", limit))

	profiles, err := s.searcher.SearchPeople(ctx, query, limit)
	if err != nil {
		s.log.Warn("candidate search failed, continuing with no candidates",
			zap.String("query", query),
			zap.Error(err))
		return []types.CandidateProfile{}, nil
	}

	deduped := dedupeByURL(profiles)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	s.log.Info("sourced candidates",
		zap.Int("found", len(profiles)),
		zap.Int("kept", len(deduped)))
	return deduped, nil
}

// BuildQuery assembles a keyword query from the job title and the
// leading must-have skills, capped at maxQueryLen.
func BuildQuery(req *types.JobRequirements) string {
	parts := []string{strings.TrimSpace(req.Title)}
	for i, skill := range req.MustHaves {
		if i >= maxQueryMustHaves {
			break
		}
		skill = strings.TrimSpace(skill)
		if skill != "" {
			parts = append(parts, skill)
		}
	}

	query := strings.Join(parts, " ")
	if len(query) > maxQueryLen {
		cut := strings.LastIndex(query[:maxQueryLen], " ")
		if cut <= 0 {
			cut = maxQueryLen
		}
		query = query[:cut]
	}
	return strings.TrimSpace(query)
}

// dedupeByURL keeps the first occurrence of each canonical profile
// URL, preserving search order.
func dedupeByURL(profiles []types.CandidateProfile) []types.CandidateProfile {
	seen := make(map[string]bool, len(profiles))
	out := make([]types.CandidateProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.LinkedInURL == "" || seen[p.LinkedInURL] {
			continue
		}
		seen[p.LinkedInURL] = true
		out = append(out, p)
	}
	return out
}
