package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wealthsense/ai/agents/sqlagent"
	"github.com/hrygo/wealthsense/ai/core/llm"
	"github.com/hrygo/wealthsense/ai/core/retrieval"
	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/storetest"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	entered chan struct{}
	release chan struct{}
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.reply, c.err
}

func newTestOrchestrator(completer llm.Completer, agent Agent, mode AgentMode, opts ...Option) *Orchestrator {
	docs := storetest.NewMemoryDocuments(storetest.SampleClients())
	assembler := retrieval.NewContextAssembler(store.New(nil, docs, nil))
	return NewOrchestrator(assembler, completer, NewComposer(agent, mode, nil), opts...)
}

func TestHandle_Scenarios(t *testing.T) {
	const narrative = "Here is what I found."
	tests := []struct {
		query string
		shape Shape
		data  Payload
	}{
		{"Who are our top clients by portfolio?", ShapeTable, ClientRankingTable()},
		{"Show me the portfolio performance trend", ShapeChart, PortfolioTrend()},
		{"What is our risk policy?", ShapeText, nil},
		{"Show top 5 portfolios", ShapeTable, ClientRankingTable()},
		{"Show performance trend", ShapeChart, PortfolioTrend()},
		{"Best relationship manager", ShapeTable, ManagerRankingTable()},
		{"Tell me about Rajesh Kumar", ShapeText, nil},
		{"Who has the highest risk?", ShapeTable, nil},
	}

	completer := &fakeCompleter{reply: narrative}
	o := newTestOrchestrator(completer, nil, AgentFallback)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := o.Handle(context.Background(), tt.query)
			assert.Equal(t, narrative, env.Response)
			assert.Equal(t, tt.shape, env.VisualizationType)
			if tt.data == nil {
				assert.Nil(t, env.Data)
			} else {
				assert.Equal(t, tt.data, env.Data)
			}
		})
	}
}

func TestHandle_PromptCarriesContextSchemaAndQuery(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	o := newTestOrchestrator(completer, nil, AgentOff)

	o.Handle(context.Background(), "How many clients does Neha Gupta manage?")
	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]

	assert.Contains(t, prompt, "Client Profile Data:")
	assert.Contains(t, prompt, "- Rajesh Kumar: Portfolio Value: ₹150.00 Cr, Risk: Aggressive, RM: Amit Sharma")
	assert.Contains(t, prompt, "- Vikram Malhotra: Portfolio Value: ₹250.00 Cr, Risk: Moderate, RM: Neha Gupta")
	assert.Contains(t, prompt, "transactions table: client_name, transaction_type")
	assert.Contains(t, prompt, "portfolio_holdings table:")
	assert.Contains(t, prompt, "relationship_managers table:")
	assert.Contains(t, prompt, "Query: How many clients does Neha Gupta manage?")
}

func TestHandle_DocumentStoreAbsent(t *testing.T) {
	completer := &fakeCompleter{reply: "ok"}
	o := NewOrchestrator(retrieval.NewContextAssembler(store.New(nil, nil, nil)), completer, nil)

	env := o.Handle(context.Background(), "Tell me about my clients")
	assert.Equal(t, "ok", env.Response)
	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], retrieval.ContextUnavailable)
}

func TestHandle_CompletionFailure(t *testing.T) {
	failure := &llm.CompletionFailure{StatusCode: 500, Body: "upstream exploded"}
	agent := &fakeAgent{result: rowsResult([]string{"a"}, []any{"x"})}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(&fakeCompleter{err: failure}, agent, AgentPrefer, WithRecorder(rec))

	env := o.Handle(context.Background(), "Show top 5 portfolios")
	assert.Equal(t, ShapeText, env.VisualizationType)
	assert.Nil(t, env.Data)
	assert.Equal(t,
		"I encountered an error processing your query: LLM API error: 500 - upstream exploded. Please try rephrasing your question.",
		env.Response)
	assert.Zero(t, agent.calls)
	assert.Equal(t, []string{"text/" + StatusLLMError}, rec.finished)
}

func TestHandle_NoLanguageModel(t *testing.T) {
	o := newTestOrchestrator(nil, nil, AgentFallback)
	env := o.Handle(context.Background(), "Show performance trend")
	assert.Equal(t, ShapeText, env.VisualizationType)
	assert.Nil(t, env.Data)
	assert.Contains(t, env.Response, ErrLLMNotConfigured.Error())
}

func TestHandle_NarrativeKeptWhenPayloadDisagrees(t *testing.T) {
	completer := &fakeCompleter{reply: "Arjun Patel has the largest portfolio."}
	o := newTestOrchestrator(completer, nil, AgentFallback)

	env := o.Handle(context.Background(), "Top portfolio ranking")
	assert.Equal(t, "Arjun Patel has the largest portfolio.", env.Response)
	table := env.Data.(*TablePayload)
	assert.Equal(t, "Vikram Malhotra", table.Rows[0][0])
}

func TestHandle_AgentFailureKeepsNarrative(t *testing.T) {
	agent := &fakeAgent{result: failedResult(sqlagent.FailureStore, "relational store unavailable")}
	o := newTestOrchestrator(&fakeCompleter{reply: "narrative"}, agent, AgentFallback)

	env := o.Handle(context.Background(), "highest traded stock")
	assert.Equal(t, ShapeTable, env.VisualizationType)
	assert.Nil(t, env.Data)
	assert.Equal(t, "narrative", env.Response)
	assert.Equal(t, 1, agent.calls)
}

func TestHandle_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	o := NewOrchestrator(nil, &fakeCompleter{reply: "ok"}, NewComposer(nil, AgentFallback, rec), WithRecorder(rec))

	o.Handle(context.Background(), "top portfolios")
	o.Handle(context.Background(), "hello")

	assert.Equal(t, 2, rec.started)
	assert.Equal(t, []string{"table/" + StatusOK, "text/" + StatusOK}, rec.finished)
	assert.Equal(t, []recordedPayload{{"table", SourceReference}}, rec.payloads)
}

func TestHandle_ConcurrencyBound(t *testing.T) {
	completer := &fakeCompleter{
		reply:   "ok",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(completer, nil, AgentOff, WithMaxConcurrent(1), WithRecorder(rec))

	done := make(chan *Envelope)
	go func() { done <- o.Handle(context.Background(), "top portfolios") }()
	<-completer.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	busy := o.Handle(ctx, "top portfolios")
	assert.Equal(t, ShapeText, busy.VisualizationType)
	assert.Nil(t, busy.Data)
	assert.Contains(t, busy.Response, "I encountered an error processing your query: context deadline exceeded")

	close(completer.release)
	first := <-done
	assert.Equal(t, ShapeTable, first.VisualizationType)
	assert.Equal(t, ClientRankingTable(), first.Data)

	assert.Contains(t, rec.finished, "text/"+StatusBusy)
}

func TestHandle_ConcurrentCalls(t *testing.T) {
	o := newTestOrchestrator(&fakeCompleter{reply: "ok"}, nil, AgentFallback, WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			query := "hello"
			if i%2 == 0 {
				query = "performance trend"
			}
			env := o.Handle(context.Background(), query)
			if env.Data != nil {
				assert.Equal(t, env.VisualizationType, env.Data.Shape())
			}
		}(i)
	}
	wg.Wait()
}
