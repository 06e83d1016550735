package validator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema document. Name keys the compile cache, so
// two schemas must not share one.
type Schema struct {
	Name       string
	Definition map[string]any
}

// compiled caches *jsonschema.Schema by Schema.Name.
var compiled sync.Map

// Compile returns the compiled form of s, compiling it on first use.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if c, ok := compiled.Load(s.Name); ok {
		return c.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values (float64, []any), not Go
	// literals such as int, so round-trip the definition.
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", s.Name, err)
	}

	url := "mem://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}

	actual, _ := compiled.LoadOrStore(s.Name, sch)
	return actual.(*jsonschema.Schema), nil
}

// MCQListSchema is the strict wire contract for a generation response.
// Unknown fields are rejected at both levels.
var MCQListSchema = &Schema{
	Name: "mcq-list",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mcqs": map[string]any{
				"type":  "array",
				"items": mcqSchema,
			},
		},
		"required":             []any{"mcqs"},
		"additionalProperties": false,
	},
}

var mcqSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{
			"type":        "string",
			"minLength":   5,
			"description": "The question stem",
		},
		"options": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
			"description":          "Option label to option text, labels A to D",
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "Label of the correct option",
		},
		"explanation": map[string]any{
			"type":        "string",
			"minLength":   1,
			"description": "Why the answer is correct",
		},
	},
	"required":             []any{"question", "options", "answer", "explanation"},
	"additionalProperties": false,
}
