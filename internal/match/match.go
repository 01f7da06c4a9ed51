// Package match filters normalized listings against a structured query.
// Two strategies are offered: strict substring containment with a
// high-precision grade pre-filter, and fuzzy similarity scoring.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/guarzo/cardcomps/internal/model"
)

// DefaultFuzzyThreshold is the minimum similarity for a fuzzy hit. Tuned
// for truncated listing titles.
const DefaultFuzzyThreshold = 0.68

// Grading-service prefixes that make a grade token a precision signal: a
// "PSA 9" title must never satisfy a "PSA 10" query, so grade matching
// bypasses substring containment entirely.
var gradePrefixes = []string{"psa", "bgs", "cgc", "sgc"}

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Strict returns the listings whose titles contain the query's card name,
// number and set name after lower-casing and whitespace removal. A grade
// beginning with a recognized grading-service prefix is applied first as a
// whole-token pattern tolerant of an optional space ("PSA10" and "PSA 10"
// match equally). Input order is preserved.
func Strict(listings []model.Listing, q model.Query) []model.Listing {
	name := squash(q.CardName)
	number := squash(q.CardNumber)
	set := squash(q.SetName)
	grade := squash(q.Grade)

	gradePattern := gradeTokenPattern(grade)

	var out []model.Listing
	for _, l := range listings {
		if gradePattern != nil && !gradePattern.MatchString(l.Title) {
			continue
		}
		title := squash(l.Title)
		if strings.Contains(title, name) &&
			strings.Contains(title, number) &&
			strings.Contains(title, set) {
			out = append(out, l)
		}
	}
	return out
}

// gradeTokenPattern compiles the whole-token pre-filter for a normalized
// grade like "psa10". It returns nil when the grade does not start with a
// recognized prefix, in which case the grade participates in nothing (the
// original search query already carried it).
func gradeTokenPattern(grade string) *regexp.Regexp {
	for _, prefix := range gradePrefixes {
		if !strings.HasPrefix(grade, prefix) {
			continue
		}
		number := strings.TrimPrefix(grade, prefix)
		if number == "" {
			return nil
		}
		return regexp.MustCompile(`(?i)` + prefix + `\s*` + regexp.QuoteMeta(number) + `\b`)
	}
	return nil
}

// Scored pairs a listing with its fuzzy similarity.
type Scored struct {
	Listing model.Listing
	Score   float64
}

// Fuzzy scores every listing's cleaned title against the query's combined
// search string and returns the hits above threshold ordered by descending
// match quality. Matching is location-independent: the needle may sit
// anywhere in the title. A threshold <= 0 selects DefaultFuzzyThreshold.
func Fuzzy(listings []model.Listing, q model.Query, threshold float64) []model.Listing {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	needle := combinedNeedle(q)
	if needle == "" {
		return nil
	}

	scored := make([]Scored, 0, len(listings))
	for _, l := range listings {
		title := cleanTitle(l.Title)
		if score := slidingSimilarity(needle, title); score >= threshold {
			scored = append(scored, Scored{Listing: l, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]model.Listing, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Listing)
	}
	return out
}

// combinedNeedle folds every non-empty query field into one normalized
// search string.
func combinedNeedle(q model.Query) string {
	var parts []string
	for _, field := range []string{q.CardName, q.SetName, q.Grade, q.CardNumber} {
		if norm := nonAlnum.ReplaceAllString(strings.ToLower(field), ""); norm != "" {
			parts = append(parts, norm)
		}
	}
	return strings.Join(parts, " ")
}

// slidingSimilarity is the best Jaro-Winkler similarity between the needle
// and any needle-sized window of the haystack, so a match mid-title counts
// as much as one at the start.
func slidingSimilarity(needle, haystack string) float64 {
	if needle == "" || haystack == "" {
		return 0
	}
	if len(haystack) <= len(needle) {
		return matchr.JaroWinkler(needle, haystack, false)
	}

	best := 0.0
	width := len(needle)
	for i := 0; i+width <= len(haystack); i++ {
		if score := matchr.JaroWinkler(needle, haystack[i:i+width], false); score > best {
			best = score
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

// cleanTitle lowers the title, drops punctuation and collapses whitespace
// so it is comparable with the needle's normal form.
func cleanTitle(title string) string {
	title = strings.ToLower(title)
	title = nonAlnumSpace.ReplaceAllString(title, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(title, " "))
}

// squash lower-cases and removes all whitespace.
func squash(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(s), "")
}
