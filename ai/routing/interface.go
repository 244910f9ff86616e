// Package routing decides how a question should be answered.
package routing

// Shape is the presentation form of a response.
type Shape string

const (
	ShapeText  Shape = "text"
	ShapeTable Shape = "table"
	ShapeChart Shape = "chart"
)

// Valid reports whether s is one of the known shapes.
func (s Shape) Valid() bool {
	switch s {
	case ShapeText, ShapeTable, ShapeChart:
		return true
	}
	return false
}

// Classifier maps a query to a response shape.
type Classifier interface {
	Classify(query string) Shape
}

// MatchResult describes how a query was classified.
type MatchResult struct {
	Shape    Shape
	Keywords []string // keywords of the winning rule found in the query
}
