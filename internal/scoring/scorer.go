// Package scoring assigns each sourced candidate a deterministic
// relevance score against the job requirements.
package scoring

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/types"
)

// Feature names reported in ScoredCandidate.FeatureWeights. The value
// stored per feature is its weighted contribution to the final score,
// so a reviewer can see where the number came from.
const (
	FeatureSkillOverlap  = "skill_overlap"
	FeatureTitleAffinity = "title_affinity"
	FeatureLocationMatch = "location_match"
	FeatureNiceToHaves   = "nice_to_have_hits"
)

// Relative feature weights. They sum to 1 so a perfect candidate
// scores 100.
const (
	skillOverlapWeight  = 0.5
	titleAffinityWeight = 0.25
	locationMatchWeight = 0.1
	niceToHaveWeight    = 0.15
)

// Scorer computes relevance scores. Scoring is pure and deterministic:
// the same requirements and profiles always yield the same scores.
type Scorer struct {
	log *zap.Logger
}

func NewScorer(log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{log: log}
}

// Score produces exactly one ScoredCandidate per input candidate, in
// input order. A candidate with no overlapping signal scores 0.
func (s *Scorer) Score(req *types.JobRequirements, candidates []types.CandidateProfile) []types.ScoredCandidate {
	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sc := scoreCandidate(req, &c)
		s.log.Debug("scored candidate",
			zap.String("url", sc.LinkedInURL),
			zap.Int("score", sc.Score))
		scored = append(scored, sc)
	}
	return scored
}

func scoreCandidate(req *types.JobRequirements, c *types.CandidateProfile) types.ScoredCandidate {
	haystack := strings.ToLower(strings.Join([]string{
		c.Headline,
		c.Summary,
		strings.Join(c.Skills, " "),
	}, " "))

	features := map[string]float64{
		FeatureSkillOverlap:  skillOverlapWeight * termHitRate(req.MustHaves, haystack),
		FeatureTitleAffinity: titleAffinityWeight * tokenOverlap(req.Title, c.Headline),
		FeatureLocationMatch: locationMatchWeight * locationMatch(req.Location, c.Location),
		FeatureNiceToHaves:   niceToHaveWeight * termHitRate(req.NiceToHaves, haystack),
	}

	var total float64
	for _, v := range features {
		total += v
	}

	score := int(math.Round(total * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return types.ScoredCandidate{
		LinkedInURL:    c.LinkedInURL,
		Score:          score,
		FeatureWeights: features,
	}
}

// termHitRate returns the fraction of terms found as case-insensitive
// substrings of haystack. No terms means no signal.
func termHitRate(terms []string, haystack string) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(haystack, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// tokenOverlap returns the fraction of meaningful job-title tokens
// that also appear in the candidate headline.
func tokenOverlap(title, headline string) float64 {
	titleTokens := tokenize(title)
	if len(titleTokens) == 0 {
		return 0
	}
	headlineTokens := make(map[string]bool)
	for _, tok := range tokenize(headline) {
		headlineTokens[tok] = true
	}
	hits := 0
	for _, tok := range titleTokens {
		if headlineTokens[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(titleTokens))
}

func locationMatch(want, have string) float64 {
	want = strings.ToLower(strings.TrimSpace(want))
	have = strings.ToLower(strings.TrimSpace(have))
	if want == "" || have == "" {
		return 0
	}
	if strings.Contains(have, want) || strings.Contains(want, have) {
		return 1
	}
	return 0
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// tokens too short to carry signal.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
