package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wealthsense/ai/agents/sqlagent"
	"github.com/hrygo/wealthsense/store"
)

type fakeAgent struct {
	mu     sync.Mutex
	result *sqlagent.Result
	calls  int
}

func (a *fakeAgent) Run(context.Context, string) *sqlagent.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.result
}

func rowsResult(columns []string, rows ...[]any) *sqlagent.Result {
	cols := make([]*store.Column, len(columns))
	for i, name := range columns {
		cols[i] = &store.Column{Name: name}
	}
	return &sqlagent.Result{Columns: cols, Rows: rows, Rounds: 2}
}

func failedResult(kind sqlagent.FailureKind, cause string) *sqlagent.Result {
	return &sqlagent.Result{Rounds: 5, Failure: &sqlagent.Failure{Kind: kind, Cause: cause}}
}

type recordedPayload struct{ shape, source string }

type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	finished []string
	payloads []recordedPayload
	runs     []string
}

func (r *fakeRecorder) QueryStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *fakeRecorder) QueryFinished(shape, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, shape+"/"+status)
}

func (r *fakeRecorder) RecordPayload(shape, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, recordedPayload{shape, source})
}

func (r *fakeRecorder) RecordAgentRun(outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, outcome)
}

func TestParseAgentMode(t *testing.T) {
	for in, want := range map[string]AgentMode{"": AgentFallback, "fallback": AgentFallback, " Prefer ": AgentPrefer, "OFF": AgentOff} {
		got, err := ParseAgentMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAgentMode("always")
	require.Error(t, err)
}

func TestCompose_TextNeverRunsAgent(t *testing.T) {
	agent := &fakeAgent{result: rowsResult([]string{"a"}, []any{"x"})}
	for _, mode := range []AgentMode{AgentFallback, AgentPrefer, AgentOff} {
		env := NewComposer(agent, mode, nil).Compose(context.Background(), "narrative", ShapeText, "top portfolio trend")
		assert.Equal(t, ShapeText, env.VisualizationType)
		assert.Nil(t, env.Data)
		assert.Equal(t, "narrative", env.Response)
	}
	assert.Zero(t, agent.calls)
}

func TestCompose_FallbackMode(t *testing.T) {
	ctx := context.Background()

	t.Run("reference data skips the agent", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult([]string{"name"}, []any{"live"})}
		rec := &fakeRecorder{}
		env := NewComposer(agent, AgentFallback, rec).Compose(ctx, "n", ShapeTable, "top 5 portfolios")
		assert.Equal(t, ClientRankingTable(), env.Data)
		assert.Zero(t, agent.calls)
		assert.Equal(t, []recordedPayload{{"table", SourceReference}}, rec.payloads)
	})

	t.Run("agent fills the gap", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult(
			[]string{"stock_symbol", "total"},
			[]any{"RELIANCE", decimal.RequireFromString("7700000.00")},
		)}
		rec := &fakeRecorder{}
		env := NewComposer(agent, AgentFallback, rec).Compose(ctx, "n", ShapeTable, "highest traded stock")
		require.IsType(t, &TablePayload{}, env.Data)
		table := env.Data.(*TablePayload)
		assert.Equal(t, []string{"stock_symbol", "total"}, table.Headers)
		assert.Equal(t, "RELIANCE", table.Rows[0][0])
		assert.Equal(t, 1, agent.calls)
		assert.Equal(t, []string{"rows"}, rec.runs)
		assert.Equal(t, []recordedPayload{{"table", SourceAgent}}, rec.payloads)
	})

	t.Run("agent failure leaves payload absent", func(t *testing.T) {
		agent := &fakeAgent{result: failedResult(sqlagent.FailureUnresolved, sqlagent.UnresolvedCause)}
		rec := &fakeRecorder{}
		env := NewComposer(agent, AgentFallback, rec).Compose(ctx, "narrative kept", ShapeTable, "highest traded stock")
		assert.Equal(t, ShapeTable, env.VisualizationType)
		assert.Nil(t, env.Data)
		assert.Equal(t, "narrative kept", env.Response)
		assert.Equal(t, []string{sqlagent.FailureUnresolved.String()}, rec.runs)
		assert.Equal(t, []recordedPayload{{"table", SourceNone}}, rec.payloads)
	})

	t.Run("store failure leaves payload absent", func(t *testing.T) {
		agent := &fakeAgent{result: failedResult(sqlagent.FailureStore, "relational store unavailable")}
		env := NewComposer(agent, AgentFallback, nil).Compose(ctx, "n", ShapeChart, "chart of volumes")
		assert.Equal(t, ShapeChart, env.VisualizationType)
		assert.Nil(t, env.Data)
	})
}

func TestCompose_PreferMode(t *testing.T) {
	ctx := context.Background()

	t.Run("live rows win over reference data", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult(
			[]string{"client_name", "portfolio_value"},
			[]any{"Vikram Malhotra", decimal.NewFromInt(2500000000)},
		)}
		env := NewComposer(agent, AgentPrefer, nil).Compose(ctx, "n", ShapeTable, "top 5 portfolios")
		table := env.Data.(*TablePayload)
		assert.Equal(t, []string{"client_name", "portfolio_value"}, table.Headers)
		assert.Equal(t, 1, agent.calls)
	})

	t.Run("failure falls back to reference data", func(t *testing.T) {
		agent := &fakeAgent{result: failedResult(sqlagent.FailureCompletion, "LLM API error: 500 - boom")}
		env := NewComposer(agent, AgentPrefer, nil).Compose(ctx, "n", ShapeChart, "performance trend")
		assert.Equal(t, PortfolioTrend(), env.Data)
	})

	t.Run("empty result falls back to reference data", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult([]string{"a", "b"})}
		env := NewComposer(agent, AgentPrefer, nil).Compose(ctx, "n", ShapeTable, "relationship manager ranking")
		assert.Equal(t, ManagerRankingTable(), env.Data)
	})

	t.Run("chart from label value rows", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult(
			[]string{"day", "total"},
			[]any{"2024-01-19", decimal.NewFromInt(5200000)},
			[]any{"2024-01-20", decimal.NewFromInt(600000)},
		)}
		env := NewComposer(agent, AgentPrefer, nil).Compose(ctx, "n", ShapeChart, "graph of daily volume")
		assert.Equal(t, SeriesPayload{
			{Name: "2024-01-19", Value: decimal.NewFromInt(5200000)},
			{Name: "2024-01-20", Value: decimal.NewFromInt(600000)},
		}, env.Data)
	})

	t.Run("chart rejects rows that are not pairs", func(t *testing.T) {
		agent := &fakeAgent{result: rowsResult(
			[]string{"client_name", "stock_symbol", "total"},
			[]any{"Vikram Malhotra", "RELIANCE", decimal.NewFromInt(5200000)},
		)}
		env := NewComposer(agent, AgentPrefer, nil).Compose(ctx, "n", ShapeChart, "graph of volumes")
		assert.Equal(t, ShapeChart, env.VisualizationType)
		assert.Nil(t, env.Data)
	})
}

func TestCompose_OffMode(t *testing.T) {
	agent := &fakeAgent{result: rowsResult([]string{"a"}, []any{"x"})}
	c := NewComposer(agent, AgentOff, nil)

	env := c.Compose(context.Background(), "n", ShapeTable, "highest traded stock")
	assert.Nil(t, env.Data)
	env = c.Compose(context.Background(), "n", ShapeTable, "top portfolios")
	assert.Equal(t, ClientRankingTable(), env.Data)
	assert.Zero(t, agent.calls)
}

func TestCompose_NilAgent(t *testing.T) {
	env := NewComposer(nil, AgentPrefer, nil).Compose(context.Background(), "n", ShapeChart, "performance trend")
	assert.Equal(t, PortfolioTrend(), env.Data)
}

func TestCompose_ShapeInvariant(t *testing.T) {
	agent := &fakeAgent{result: rowsResult(
		[]string{"label", "value"},
		[]any{"a", decimal.NewFromInt(1)},
	)}
	queries := []string{"top portfolios", "relationship manager", "performance trend", "chart", "graph", "hello", "highest"}
	for _, mode := range []AgentMode{AgentFallback, AgentPrefer, AgentOff} {
		c := NewComposer(agent, mode, nil)
		for _, shape := range []Shape{ShapeText, ShapeTable, ShapeChart} {
			for _, q := range queries {
				env := c.Compose(context.Background(), "n", shape, q)
				assert.Equal(t, shape, env.VisualizationType)
				if env.Data != nil {
					assert.Equal(t, shape, env.Data.Shape(), "%s %s %q", mode, shape, q)
				}
				if shape == ShapeText {
					assert.Nil(t, env.Data)
				}
			}
		}
	}
}

func TestSeriesFromRows(t *testing.T) {
	series, ok := SeriesFromRows([][]any{
		{decimal.NewFromInt(2024), decimal.RequireFromString("1.50")},
		{nil, decimal.Zero},
	})
	require.True(t, ok)
	assert.Equal(t, "2024", series[0].Name)
	assert.Equal(t, "", series[1].Name)

	_, ok = SeriesFromRows([][]any{{"a", "not a number"}})
	assert.False(t, ok)

	_, ok = SeriesFromRows([][]any{{"a"}})
	assert.False(t, ok)
}

func TestCompose_AgentWithoutResult(t *testing.T) {
	agent := &fakeAgent{}
	env := NewComposer(agent, AgentFallback, nil).Compose(context.Background(), "n", ShapeTable, "highest")
	assert.Nil(t, env.Data)
	assert.Equal(t, 1, agent.calls)
}
