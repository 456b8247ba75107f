package linkedin

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/candidate-sourcer/internal/types"
)

// Selectors for people-search result cards. LinkedIn rotates these
// regularly, so each field tries several known variants.
const profileLinkSelector = `a[href*="/in/"]`

var resultContainerSelector = strings.Join([]string{
	"div.entity-result",
	"li.reusable-search__result-container",
	"div[data-view-name='search-entity-result-universal-template']",
}, ", ")

var headlineSelectors = []string{
	"div.entity-result__primary-subtitle",
	"div.t-14.t-black.t-normal",
	"div.t-14.t-normal.t-black",
	"span.entity-result__title-text",
}

var locationSelectors = []string{
	"div.entity-result__secondary-subtitle",
	"div.t-14.t-normal.t-black--light",
}

var summarySelectors = []string{
	"p.entity-result__summary",
	"p.entity-result__summary--2-lines",
}

// parseSearchResults extracts candidate profiles from a rendered
// people-search page. Profiles are deduplicated by canonical URL in
// document order; anonymous results ("LinkedIn Member" or empty names)
// are skipped.
func parseSearchResults(html string, limit int) ([]types.CandidateProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	profiles := make([]types.CandidateProfile, 0, limit)
	seen := make(map[string]bool)

	doc.Find(profileLinkSelector).EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		profileURL := CanonicalProfileURL(href)
		if profileURL == "" || seen[profileURL] {
			return true
		}

		name := extractName(anchor.Text())
		if name == "" {
			return true
		}
		seen[profileURL] = true

		profile := types.CandidateProfile{
			Name:        name,
			LinkedInURL: profileURL,
		}

		container := anchor.Closest(resultContainerSelector)
		if container.Length() > 0 {
			profile.Headline = firstText(container, headlineSelectors, name)
			profile.Location = firstText(container, locationSelectors, name, profile.Headline)
			profile.Summary = firstText(container, summarySelectors, name)
		}

		profiles = append(profiles, profile)
		return limit <= 0 || len(profiles) < limit
	})

	return profiles, nil
}

// CanonicalProfileURL normalizes a profile link by stripping query
// parameters and fragments. Returns "" for links that are not profile
// pages.
func CanonicalProfileURL(href string) string {
	if !strings.Contains(href, "/in/") {
		return ""
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return strings.TrimRight(href, "/")
}

// extractName pulls a display name out of anchor text. Result cards
// repeat the name in nested spans and append status text like
// "View Jane Doe's profile", so only the first non-empty line counts.
func extractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "LinkedIn Member" || strings.HasPrefix(line, "View ") {
			return ""
		}
		if len(line) < 2 {
			return ""
		}
		return line
	}
	return ""
}

// firstText returns the first non-empty trimmed text among selectors
// inside sel, skipping values that duplicate any of the exclude
// strings.
func firstText(sel *goquery.Selection, selectors []string, exclude ...string) string {
	for _, s := range selectors {
		text := strings.TrimSpace(sel.Find(s).First().Text())
		if text == "" {
			continue
		}
		if containsString(exclude, text) {
			continue
		}
		return text
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
