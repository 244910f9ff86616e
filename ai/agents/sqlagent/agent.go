// Package sqlagent answers questions with rows from the relational store by
// letting a language model write SQL against a cached schema.
package sqlagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/wealthsense/ai/core/llm"
	"github.com/hrygo/wealthsense/internal/strutil"
	"github.com/hrygo/wealthsense/store"
)

const (
	DefaultMaxRounds = 5
	DefaultMaxRows   = 100
)

var (
	fencedSQLRegex = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)```")
	// Uppercase keyword at the start of a line, optionally after a label
	// such as "SQLQuery:". Lowercase "select" is usually prose.
	bareSQLRegex = regexp.MustCompile(`(?ms)^[ \t]*(?:[A-Za-z]+:[ \t]*)?((?:WITH\b.+?\bSELECT|SELECT)\b.+?\bFROM\b[^;]*)`)
)

// Config bounds an agent run.
type Config struct {
	MaxRounds int // language model calls per run, at least 1 (default: 5)
	MaxRows   int // row cap for query results (default: 100)
}

// Result is the outcome of Run: rows on success, Failure otherwise.
type Result struct {
	Columns   []*store.Column
	Rows      [][]any // coerced values, see CoerceValue
	Truncated bool
	SQL       string
	Rounds    int
	Failure   *Failure
}

// OK reports whether the run produced rows.
func (r *Result) OK() bool {
	return r != nil && r.Failure == nil
}

// ColumnNames returns the result column names in order.
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Agent runs the bounded tool loop. The schema is read once by New and never
// refreshed; build a new Agent to pick up schema changes. Run is safe for
// concurrent use.
type Agent struct {
	llm       llm.ToolCaller
	db        store.Driver
	maxRounds int
	maxRows   int

	tables  map[string]*store.TableSchema
	names   []string
	tools   map[string]*Tool
	prompt  string
	toolDef []llm.ToolDescriptor
}

// New introspects the schema of db and returns an agent bound to it.
func New(ctx context.Context, model llm.ToolCaller, db store.Driver, cfg Config) (*Agent, error) {
	if model == nil {
		return nil, errors.New("sqlagent: language model required")
	}
	if db == nil {
		return nil, errors.New("sqlagent: relational store required")
	}
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.MaxRows < 1 {
		cfg.MaxRows = DefaultMaxRows
	}

	schema, err := db.DescribeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlagent: describe schema: %w", err)
	}

	a := &Agent{
		llm:       model,
		db:        db,
		maxRounds: cfg.MaxRounds,
		maxRows:   cfg.MaxRows,
		tables:    make(map[string]*store.TableSchema, len(schema)),
		tools:     newToolset(),
	}
	for _, t := range schema {
		a.tables[strings.ToLower(t.Name)] = t
		a.names = append(a.names, t.Name)
	}
	sort.Strings(a.names)
	a.prompt = buildSystemPrompt(db.Dialect(), cfg.MaxRows, a.names)
	a.toolDef = descriptors(a.tools)

	slog.Info("sqlagent: schema cached", "dialect", db.Dialect(), "tables", len(a.names))
	return a, nil
}

// Tables returns the cached table names.
func (a *Agent) Tables() []string {
	return append([]string(nil), a.names...)
}

// Run asks the model for SQL until one statement executes, the round budget
// is spent or a fatal error occurs. It never returns nil.
func (a *Agent) Run(ctx context.Context, query string) *Result {
	start := time.Now()
	messages := []llm.Message{
		llm.SystemPrompt(a.prompt),
		llm.UserMessage(query),
	}

	for round := 1; round <= a.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return &Result{Rounds: round - 1, Failure: newFailure(FailureCompletion, err)}
		}

		resp, _, err := a.llm.ChatWithTools(ctx, messages, a.toolDef)
		if err != nil {
			slog.Warn("sqlagent: model call failed", "round", round, "error", err)
			return &Result{Rounds: round, Failure: newFailure(FailureCompletion, err)}
		}

		if len(resp.ToolCalls) == 0 {
			result, next, done := a.handleText(ctx, resp.Content)
			if done {
				result.Rounds = round
				a.logDone(result, start)
				return result
			}
			messages = append(messages, next...)
			continue
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			output, result, err := a.dispatch(ctx, call)
			if result != nil {
				result.Rounds = round
				a.logDone(result, start)
				return result
			}
			if err != nil {
				if ClassifyStepError(err) == ErrorClassFatal {
					return a.fatal(err, round)
				}
				output = feedback(err)
			}
			messages = append(messages, llm.ToolMessage(call.ID, output))
		}
	}

	slog.Warn("sqlagent: round budget exhausted", "rounds", a.maxRounds)
	return &Result{Rounds: a.maxRounds, Failure: newFailure(FailureUnresolved, nil)}
}

// handleText deals with a reply without tool calls. SQL found in the text is
// executed; otherwise the model is reminded to produce some.
func (a *Agent) handleText(ctx context.Context, content string) (*Result, []llm.Message, bool) {
	next := []llm.Message{llm.AssistantMessage(content)}

	stmt := ExtractSQL(content)
	if stmt == "" {
		return nil, append(next, llm.UserMessage(noSQLReminder)), false
	}

	result, err := a.execute(ctx, stmt)
	if err == nil {
		return result, nil, true
	}
	if ClassifyStepError(err) == ErrorClassFatal {
		return a.fatal(err, 0), nil, true
	}
	return nil, append(next, llm.UserMessage(feedback(err))), false
}

// dispatch runs one tool call. A non-nil Result means a query succeeded.
func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall) (string, *Result, error) {
	tool, ok := a.tools[call.Function.Name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Function.Name)
	}
	input, err := tool.Input(call.Function.Arguments)
	if err != nil {
		return "", nil, err
	}

	switch tool.Name() {
	case ToolListTables:
		return strings.Join(a.names, ", "), nil, nil
	case ToolSchema:
		out, err := a.describe(input)
		return out, nil, err
	default:
		result, err := a.execute(ctx, input)
		return "", result, err
	}
}

// describe renders the cached columns of the named tables.
func (a *Agent) describe(input string) (string, error) {
	var lines []string
	for _, name := range strings.Split(input, ",") {
		name = strings.Trim(strings.TrimSpace(name), "`\"")
		if name == "" {
			continue
		}
		t, ok := a.tables[strings.ToLower(name)]
		if !ok {
			return "", fmt.Errorf("%w: %s (available: %s)", ErrUnknownTable, name, strings.Join(a.names, ", "))
		}
		lines = append(lines, t.String())
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: no table names given", ErrInvalidInput)
	}
	return strings.Join(lines, "\n"), nil
}

// execute guards and runs stmt.
func (a *Agent) execute(ctx context.Context, stmt string) (*Result, error) {
	checked, err := CheckReadOnly(stmt)
	if err != nil {
		slog.Debug("sqlagent: statement rejected", "sql", strutil.Truncate(stmt, 200), "error", err)
		return nil, err
	}

	raw, err := a.db.ExecuteReadOnly(ctx, checked, a.maxRows)
	if err != nil {
		slog.Debug("sqlagent: statement failed", "sql", strutil.Truncate(checked, 200), "error", err)
		return nil, err
	}
	return &Result{
		Columns:   raw.Columns,
		Rows:      CoerceRows(raw.Columns, raw.Rows),
		Truncated: raw.Truncated,
		SQL:       checked,
	}, nil
}

func (a *Agent) fatal(err error, round int) *Result {
	kind := FailureCompletion
	if errors.Is(err, store.ErrUnavailable) {
		kind = FailureStore
	}
	slog.Warn("sqlagent: run aborted", "kind", kind.String(), "error", err)
	return &Result{Rounds: round, Failure: newFailure(kind, err)}
}

func (a *Agent) logDone(result *Result, start time.Time) {
	if !result.OK() {
		return
	}
	slog.Info("sqlagent: query resolved",
		"rounds", result.Rounds,
		"rows", len(result.Rows),
		"truncated", result.Truncated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// ExtractSQL pulls a statement out of free text: the first ```sql fenced
// block, else the first bare SELECT or WITH statement that starts a line.
// It returns "" when neither is present.
func ExtractSQL(text string) string {
	if m := fencedSQLRegex.FindStringSubmatch(text); m != nil {
		if stmt := strings.TrimSpace(m[1]); stmt != "" {
			return stmt
		}
	}
	if sm := bareSQLRegex.FindStringSubmatch(text); sm != nil {
		m := sm[1]
		// Prose after the statement starts after a blank line.
		if i := strings.Index(m, "\n\n"); i >= 0 {
			m = m[:i]
		}
		return strings.TrimSpace(m)
	}
	return ""
}
