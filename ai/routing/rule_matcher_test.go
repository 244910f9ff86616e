package routing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatcher_Classify(t *testing.T) {
	matcher := NewRuleMatcher()

	tests := []struct {
		query string
		want  Shape
	}{
		{"What are the top five portfolios by value?", ShapeTable},
		{"Who has the HIGHEST holdings?", ShapeTable},
		{"best performing relationship manager", ShapeTable},
		{"Show the RM ranking", ShapeTable},
		{"Show me the portfolio performance trend", ShapeChart},
		{"Plot a graph of monthly value", ShapeChart},
		{"Render a Chart", ShapeChart},
		{"What is our risk policy?", ShapeText},
		{"", ShapeText},
		// Table keywords outrank chart keywords.
		{"top performers trend", ShapeTable},
		{"chart of the best clients", ShapeTable},
		// Substring semantics.
		{"stop the analysis", ShapeTable},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Classify(tt.query))
		})
	}
}

func TestRuleMatcher_TableKeywordsAlwaysWin(t *testing.T) {
	matcher := NewRuleMatcher()
	for _, table := range TableKeywords() {
		for _, chart := range ChartKeywords() {
			query := chart + " and " + table
			assert.Equal(t, ShapeTable, matcher.Classify(query), query)
			assert.Equal(t, ShapeTable, matcher.Classify(strings.ToUpper(query)), query)
		}
	}
}

func TestRuleMatcher_ChartWithoutTableKeywords(t *testing.T) {
	matcher := NewRuleMatcher()
	for _, chart := range ChartKeywords() {
		assert.Equal(t, ShapeChart, matcher.Classify("show the "+chart+" please"), chart)
	}
}

func TestRuleMatcher_Idempotent(t *testing.T) {
	matcher := NewRuleMatcher()
	queries := []string{"top clients", "performance trend", "hello", "Best GRAPH"}
	for _, q := range queries {
		first := matcher.Classify(q)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, matcher.Classify(q))
		}
		assert.True(t, first.Valid())
	}
}

func TestRuleMatcher_Match(t *testing.T) {
	result := NewRuleMatcher().Match("Top and best clients")
	assert.Equal(t, ShapeTable, result.Shape)
	assert.Equal(t, []string{"top", "best"}, result.Keywords)

	result = NewRuleMatcher().Match("quarterly summary")
	assert.Equal(t, ShapeText, result.Shape)
	assert.Empty(t, result.Keywords)
}

func TestKeywordsAreCopies(t *testing.T) {
	kws := TableKeywords()
	kws[0] = "mutated"
	assert.Equal(t, "top", TableKeywords()[0])
}

func TestShape_Valid(t *testing.T) {
	assert.True(t, ShapeText.Valid())
	assert.True(t, ShapeTable.Valid())
	assert.True(t, ShapeChart.Valid())
	assert.False(t, Shape("pie").Valid())
}
