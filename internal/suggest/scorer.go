package suggest

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	// MaxLocal caps the local scorer's output.
	MaxLocal = 8
	// topCategories is how many ranked categories contribute items.
	topCategories = 3

	keywordSubstringScore = 2.0
	contextSubstringScore = 1.0
	keywordWordScore      = 3.0
	contextWordScore      = 1.5
)

// Ranked is a category that matched a title, with its score.
type Ranked struct {
	Category Category
	Score    float64
}

// Scorer is the offline, deterministic suggestion source.
type Scorer struct {
	catalog *Catalog
}

func NewScorer(catalog *Catalog) *Scorer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Scorer{catalog: catalog}
}

// words splits a lowercased title on whitespace and punctuation.
func words(title string) []string {
	return strings.FieldsFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// Score rates one category against a lowercased title. Substring and
// whole-word matches of the same keyword both count.
func Score(title string, c Category) float64 {
	var score float64
	for _, kw := range c.Keywords {
		if strings.Contains(title, kw) {
			score += keywordSubstringScore
		}
	}
	for _, cw := range c.ContextWords {
		if strings.Contains(title, cw) {
			score += contextSubstringScore
		}
	}
	for _, w := range words(title) {
		if contains(c.Keywords, w) {
			score += keywordWordScore
		}
		if contains(c.ContextWords, w) {
			score += contextWordScore
		}
	}
	return score
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Rank returns every category scoring above zero, highest priority first
// and then highest score. Catalog order breaks remaining ties.
func (s *Scorer) Rank(title string) []Ranked {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil
	}
	var ranked []Ranked
	for _, c := range s.catalog.Categories {
		if score := Score(title, c); score > 0 {
			ranked = append(ranked, Ranked{Category: c, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Category.Priority != ranked[j].Category.Priority {
			return ranked[i].Category.Priority > ranked[j].Category.Priority
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// wantsSeasonal reports whether the title names an outdoor or travel activity.
func (s *Scorer) wantsSeasonal(title string) bool {
	for _, trigger := range s.catalog.OutdoorTriggers {
		if strings.Contains(title, trigger) {
			return true
		}
	}
	return false
}

// Suggest returns up to MaxLocal items for an event. The top categories'
// item lists, followed by the seasonal list when the title has an outdoor
// trigger, are interleaved one item at a time so every matched category is
// represented before any one of them fills the result.
func (s *Scorer) Suggest(title string, date time.Time) []string {
	ranked := s.Rank(title)
	var sources [][]string
	for i, r := range ranked {
		if i == topCategories {
			break
		}
		sources = append(sources, r.Category.Items)
	}
	lower := strings.ToLower(title)
	if s.wantsSeasonal(lower) {
		if items := s.catalog.Seasonal[SeasonOf(date)]; len(items) > 0 {
			sources = append(sources, items)
		}
	}
	return interleave(sources, MaxLocal)
}

func interleave(sources [][]string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for round := 0; len(out) < limit; round++ {
		progressed := false
		for _, src := range sources {
			if round >= len(src) {
				continue
			}
			progressed = true
			item := src[round]
			key := strings.ToLower(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
			if len(out) == limit {
				return out
			}
		}
		if !progressed {
			break
		}
	}
	return out
}
