package sqlagent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/wealthsense/ai/core/llm"
)

// Tool names offered to the model.
const (
	ToolListTables = "sql_db_list_tables"
	ToolSchema     = "sql_db_schema"
	ToolQuery      = "sql_db_query"
)

// Tool is a function the model may call.
type Tool struct {
	name        string
	description string
	params      *llm.JSONSchema
	// inputKey names the argument holding the tool input.
	inputKey string
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.name
}

// Descriptor returns the tool definition sent to the model.
func (t *Tool) Descriptor() llm.ToolDescriptor {
	return llm.ToolDescriptor{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.params.String(),
	}
}

// Input extracts the tool input from the call arguments. Models sometimes
// send the bare value instead of a JSON object; that is accepted as-is.
func (t *Tool) Input(arguments string) (string, error) {
	arguments = strings.TrimSpace(arguments)
	if t.inputKey == "" || arguments == "" {
		return arguments, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return arguments, nil
	}
	v, ok := args[t.inputKey]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidInput, t.inputKey)
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidInput, t.inputKey)
	}
}

func newToolset() map[string]*Tool {
	tools := []*Tool{
		{
			name:        ToolListTables,
			description: "Returns a comma-separated list of the tables in the database.",
			params:      &llm.JSONSchema{Type: "object", Properties: map[string]*llm.JSONSchema{}},
		},
		{
			name:        ToolSchema,
			description: "Returns the columns and types of the given tables. Call " + ToolListTables + " first to learn the table names.",
			params: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]*llm.JSONSchema{
					"table_names": {Type: "string", Description: "Comma-separated table names, e.g. transactions, relationship_managers"},
				},
				Required: []string{"table_names"},
			},
			inputKey: "table_names",
		},
		{
			name:        ToolQuery,
			description: "Runs a single read-only SQL query and returns the rows. On error, rewrite the query and try again.",
			params: &llm.JSONSchema{
				Type: "object",
				Properties: map[string]*llm.JSONSchema{
					"query": {Type: "string", Description: "A single SELECT statement"},
				},
				Required: []string{"query"},
			},
			inputKey: "query",
		},
	}

	set := make(map[string]*Tool, len(tools))
	for _, t := range tools {
		set[t.name] = t
	}
	return set
}

// descriptors lists the tool definitions in a stable order.
func descriptors(set map[string]*Tool) []llm.ToolDescriptor {
	order := []string{ToolListTables, ToolSchema, ToolQuery}
	out := make([]llm.ToolDescriptor, 0, len(order))
	for _, name := range order {
		out = append(out, set[name].Descriptor())
	}
	return out
}
