package routing

import "strings"

// shapeRule maps a set of trigger keywords to a shape.
type shapeRule struct {
	shape    Shape
	keywords []string
}

// Rules are checked in order; the first rule with a matching keyword wins,
// so a query mentioning both "top" and "trend" is a table.
var shapeRules = []shapeRule{
	{shape: ShapeTable, keywords: []string{"top", "highest", "best", "ranking"}},
	{shape: ShapeChart, keywords: []string{"chart", "graph", "trend", "performance"}},
}

// TableKeywords returns the keywords that select a table.
func TableKeywords() []string {
	return append([]string(nil), shapeRules[0].keywords...)
}

// ChartKeywords returns the keywords that select a chart.
func ChartKeywords() []string {
	return append([]string(nil), shapeRules[1].keywords...)
}

// RuleMatcher classifies queries by case-insensitive substring match.
// It holds no state and is safe for concurrent use.
type RuleMatcher struct{}

// NewRuleMatcher creates a new rule matcher.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{}
}

// Classify returns the shape for query, ShapeText when nothing matches.
func (m *RuleMatcher) Classify(query string) Shape {
	return m.Match(query).Shape
}

// Match classifies query and reports the keywords that decided it.
func (m *RuleMatcher) Match(query string) *MatchResult {
	lower := strings.ToLower(query)
	for _, rule := range shapeRules {
		var matched []string
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			return &MatchResult{Shape: rule.shape, Keywords: matched}
		}
	}
	return &MatchResult{Shape: ShapeText}
}
