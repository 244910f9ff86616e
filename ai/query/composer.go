package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrygo/wealthsense/ai/agents/sqlagent"
)

// AgentMode decides when the SQL agent is asked for live data.
type AgentMode string

const (
	// AgentFallback runs the agent only when reference data yields nothing.
	AgentFallback AgentMode = "fallback"
	// AgentPrefer runs the agent first and uses reference data when it fails.
	AgentPrefer AgentMode = "prefer"
	// AgentOff never runs the agent.
	AgentOff AgentMode = "off"
)

// ParseAgentMode maps a configuration value to an AgentMode. Empty means fallback.
func ParseAgentMode(s string) (AgentMode, error) {
	switch mode := AgentMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return AgentFallback, nil
	case AgentFallback, AgentPrefer, AgentOff:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown agent mode %q (want fallback, prefer or off)", s)
	}
}

// Agent produces live rows for a query. *sqlagent.Agent satisfies it.
type Agent interface {
	Run(ctx context.Context, query string) *sqlagent.Result
}

// Composer attaches structured data to a narrative.
type Composer struct {
	agent    Agent
	mode     AgentMode
	recorder Recorder
}

// NewComposer returns a composer. agent may be nil, in which case only
// reference data is used.
func NewComposer(agent Agent, mode AgentMode, recorder Recorder) *Composer {
	if mode == "" {
		mode = AgentFallback
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Composer{agent: agent, mode: mode, recorder: recorder}
}

// Compose builds the envelope for a query. The narrative is used verbatim.
func (c *Composer) Compose(ctx context.Context, narrative string, shape Shape, query string) *Envelope {
	env := &Envelope{Response: narrative, VisualizationType: shape}
	if shape == ShapeText || !shape.Valid() {
		env.VisualizationType = ShapeText
		return env
	}

	payload, source := c.payload(ctx, shape, query)
	if payload != nil && payload.Shape() != shape {
		slog.Warn("composer: dropping payload that does not match shape",
			"shape", shape,
			"payload_shape", payload.Shape(),
			"source", source,
		)
		payload, source = nil, SourceNone
	}
	c.recorder.RecordPayload(string(shape), source)

	if payload != nil {
		env.Data = payload
	}
	return env
}

func (c *Composer) payload(ctx context.Context, shape Shape, query string) (Payload, string) {
	useAgent := c.agent != nil && c.mode != AgentOff

	if useAgent && c.mode == AgentPrefer {
		if live := c.live(ctx, shape, query); live != nil {
			return live, SourceAgent
		}
	}
	if ref := ReferencePayload(shape, query); ref != nil {
		return ref, SourceReference
	}
	if useAgent && c.mode == AgentFallback {
		if live := c.live(ctx, shape, query); live != nil {
			return live, SourceAgent
		}
	}
	return nil, SourceNone
}

// live asks the agent for rows and converts them to a payload of shape.
func (c *Composer) live(ctx context.Context, shape Shape, query string) Payload {
	start := time.Now()
	result := c.agent.Run(ctx, query)
	if result == nil {
		return nil
	}

	outcome := "rows"
	if result.Failure != nil {
		outcome = result.Failure.Kind.String()
	}
	c.recorder.RecordAgentRun(outcome, result.Rounds, time.Since(start))

	if !result.OK() {
		slog.Info("composer: agent produced no rows",
			"outcome", outcome,
			"cause", result.Failure.Cause,
		)
		return nil
	}
	if len(result.Rows) == 0 {
		return nil
	}

	switch shape {
	case ShapeTable:
		return &TablePayload{Headers: result.ColumnNames(), Rows: result.Rows}
	case ShapeChart:
		series, ok := SeriesFromRows(result.Rows)
		if !ok {
			slog.Debug("composer: agent rows are not label/value pairs", "columns", len(result.Columns))
			return nil
		}
		return series
	}
	return nil
}

// SeriesFromRows converts (label, numeric) rows into a series. It reports
// false when any row has another layout.
func SeriesFromRows(rows [][]any) (SeriesPayload, bool) {
	series := make(SeriesPayload, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, false
		}
		value, ok := row[1].(decimal.Decimal)
		if !ok {
			return nil, false
		}
		var name string
		switch label := row[0].(type) {
		case nil:
			name = ""
		case string:
			name = label
		case decimal.Decimal:
			name = label.String()
		default:
			name = fmt.Sprint(label)
		}
		series = append(series, SeriesPoint{Name: name, Value: value})
	}
	return series, true
}
