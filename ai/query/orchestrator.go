package query

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/wealthsense/ai/core/llm"
	"github.com/hrygo/wealthsense/ai/core/retrieval"
	"github.com/hrygo/wealthsense/ai/routing"
	"github.com/hrygo/wealthsense/internal/strutil"
)

// ErrLLMNotConfigured is the cause reported when no language model is wired.
var ErrLLMNotConfigured = errors.New("language model not configured")

// Query status labels reported to the Recorder.
const (
	StatusOK       = "ok"
	StatusLLMError = "llm_error"
	StatusBusy     = "busy"
)

// ContextSource renders client profiles for the prompt.
// *retrieval.ContextAssembler satisfies it.
type ContextSource interface {
	Assemble(ctx context.Context, limit int) string
}

// Orchestrator answers a query end to end: classify, gather context, ask the
// model, then attach structured data.
type Orchestrator struct {
	classifier routing.Classifier
	context    ContextSource
	llm        llm.Completer
	composer   *Composer
	recorder   Recorder
	sem        *semaphore.Weighted
	maxContext int
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c routing.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithMaxConcurrent bounds the number of queries handled at once. n <= 0
// leaves it unbounded.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.sem = semaphore.NewWeighted(int64(n))
		} else {
			o.sem = nil
		}
	}
}

// NewOrchestrator wires the collaborators. contextSource and composer may be
// nil; a nil completer makes every call degrade to the apology narrative.
func NewOrchestrator(contextSource ContextSource, completer llm.Completer, composer *Composer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: routing.NewRuleMatcher(),
		context:    contextSource,
		llm:        completer,
		recorder:   nopRecorder{},
		maxContext: retrieval.MaxProfiles,
	}
	for _, opt := range opts {
		opt(o)
	}
	if composer == nil {
		composer = NewComposer(nil, AgentOff, o.recorder)
	}
	o.composer = composer
	return o
}

// Handle answers query. It never fails: every path yields a well-formed
// envelope whose payload matches its shape.
func (o *Orchestrator) Handle(ctx context.Context, query string) *Envelope {
	start := time.Now()
	traceID := uuid.New().String()
	logger := slog.With("trace_id", traceID)

	shape := o.classifier.Classify(query)
	logger.Debug("orchestrator: classified query", "shape", shape, "query", strutil.Truncate(query, 80))

	status := StatusOK
	o.recorder.QueryStarted()
	defer func() {
		elapsed := time.Since(start)
		o.recorder.QueryFinished(string(shape), status, elapsed)
		logger.Info("orchestrator: query handled",
			"shape", shape,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}()

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			status = StatusBusy
			shape = ShapeText
			logger.Warn("orchestrator: no capacity before context ended", "error", err)
			return degraded(err)
		}
		defer o.sem.Release(1)
	}

	contextBlock := retrieval.ContextUnavailable
	if o.context != nil {
		contextBlock = o.context.Assemble(ctx, o.maxContext)
	}

	narrative, err := o.complete(ctx, BuildPrompt(contextBlock, query))
	if err != nil {
		status = StatusLLMError
		shape = ShapeText
		logger.Error("orchestrator: completion failed", "error", err)
		return degraded(err)
	}

	return o.composer.Compose(ctx, narrative, shape, query)
}

func (o *Orchestrator) complete(ctx context.Context, prompt string) (string, error) {
	if o.llm == nil {
		return "", ErrLLMNotConfigured
	}
	return o.llm.Complete(ctx, prompt)
}

func degraded(cause error) *Envelope {
	return &Envelope{Response: apologyNarrative(cause), VisualizationType: ShapeText}
}
