// Package query turns a natural-language question into a response envelope
// holding a narrative and, for tables and charts, structured data.
package query

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrygo/wealthsense/ai/routing"
)

// Shape is the presentation form of a response.
type Shape = routing.Shape

const (
	ShapeText  = routing.ShapeText
	ShapeTable = routing.ShapeTable
	ShapeChart = routing.ShapeChart
)

// Payload is the structured data of an envelope: *TablePayload or SeriesPayload.
type Payload interface {
	// Shape is the only envelope shape the payload may travel with.
	Shape() Shape
}

// TablePayload is tabular data. Cells are strings, decimal.Decimal or nil.
type TablePayload struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

func (*TablePayload) Shape() Shape { return ShapeTable }

// SeriesPoint is one labelled value of a chart series.
type SeriesPoint struct {
	Name  string
	Value decimal.Decimal
}

// MarshalJSON renders the value as a JSON number.
func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string      `json:"name"`
		Value json.Number `json:"value"`
	}{p.Name, json.Number(p.Value.String())})
}

// SeriesPayload is ordered chart data, serialized as [{name, value}].
type SeriesPayload []SeriesPoint

func (SeriesPayload) Shape() Shape { return ShapeChart }

// Envelope is the response to a query.
type Envelope struct {
	Response          string  `json:"response"`
	Data              Payload `json:"data"`
	VisualizationType Shape   `json:"visualizationType"`
}

// Payload sources reported to the Recorder.
const (
	SourceAgent     = "agent"
	SourceReference = "reference"
	SourceNone      = "none"
)

// Recorder receives orchestration metrics. *metrics.PrometheusExporter satisfies it.
type Recorder interface {
	QueryStarted()
	QueryFinished(shape, status string, duration time.Duration)
	RecordPayload(shape, source string)
	RecordAgentRun(outcome string, rounds int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) QueryStarted()                              {}
func (nopRecorder) QueryFinished(string, string, time.Duration) {}
func (nopRecorder) RecordPayload(string, string)               {}
func (nopRecorder) RecordAgentRun(string, int, time.Duration)  {}
