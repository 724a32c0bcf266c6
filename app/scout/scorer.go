package scout

import (
	"fmt"
	"regexp"
	"strings"
)

type compiledCategory struct {
	name     string
	weight   int
	patterns []*regexp.Regexp
}

// Scorer evaluates the declarative rule table of one scout against raw
// items. Patterns are compiled once at construction; Run is safe for
// concurrent use.
type Scorer struct {
	scoring    Scoring
	categories []compiledCategory
	highValue  []*regexp.Regexp
}

func NewScorer(scoring Scoring) (*Scorer, error) {
	s := &Scorer{scoring: scoring}

	for _, rule := range scoring.Categories {
		compiled := compiledCategory{name: rule.Name, weight: rule.Weight}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("category %s pattern %q: %w", rule.Name, pattern, err)
			}
			compiled.patterns = append(compiled.patterns, re)
		}
		s.categories = append(s.categories, compiled)
	}

	for _, pattern := range scoring.HighValueContexts {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("high value context pattern %q: %w", pattern, err)
		}
		s.highValue = append(s.highValue, re)
	}

	return s, nil
}

// Run scores a single item. Categories are checked in configured order
// and the first one with any pattern match wins; lower-priority
// categories are never consulted for categorization. Bonuses are flat
// additions on top of the category base weight.
func (s *Scorer) Run(item RawItem) ScoredItem {
	text := item.Title + "\n" + item.Body

	scored := ScoredItem{
		RawItem:  item,
		Score:    s.scoring.DefaultScore,
		Category: CategoryGeneral,
	}

	for _, category := range s.categories {
		if matchesAny(category.patterns, text) {
			scored.Score = category.weight
			scored.Category = category.name
			break
		}
	}

	lowered := strings.ToLower(text)
	for _, keyword := range s.scoring.Keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			scored.MatchedKeywords = append(scored.MatchedKeywords, keyword)
			scored.Score += s.scoring.KeywordPoints
		}
	}

	for _, bonus := range s.scoring.Engagement {
		if engagementValue(item.Engagement, bonus.Metric) > bonus.Min {
			scored.Score += bonus.Points
		}
	}

	if matchesAny(s.highValue, text) {
		scored.IsHighValue = true
		scored.Score += s.scoring.HighValuePoints
	}

	if scored.Score > 100 {
		scored.Score = 100
	}
	if scored.Score < 0 {
		scored.Score = 0
	}

	return scored
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func engagementValue(e Engagement, metric string) int {
	switch metric {
	case "likes":
		return e.Likes
	case "comments":
		return e.Comments
	case "shares":
		return e.Shares
	default:
		return 0
	}
}
