package llm

import "encoding/json"

// JSONSchema describes tool parameters in OpenAI's JSON Schema format.
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

// MarshalJSON implements json.Marshaler for JSONSchema.
// It uses type alias to prevent infinite recursion.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// String renders the schema as a JSON string for ToolDescriptor.Parameters.
func (s *JSONSchema) String() string {
	data, err := json.Marshal(s)
	if err != nil {
		return `{"type":"object"}`
	}
	return string(data)
}
