package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/quizrag/internal/mcq"
)

// Config controls a Parser.
type Config struct {
	// Validators run in order on every MCQ after schema validation. The
	// first failure for an MCQ is reported; later MCQs are still checked.
	Validators []Validator
}

// DefaultConfig returns the strict chain: four labelled options and an
// answer that names one of them.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&OptionsValidator{},
			&AnswerKeyValidator{},
		},
	}
}

// SchemaOnlyConfig accepts anything the schema accepts.
func SchemaOnlyConfig() Config {
	return Config{}
}

// Parser parses and validates generation output. The batch is accepted or
// rejected as a whole.
type Parser struct {
	config Config
}

// NewParser returns a Parser with the given validator chain.
func NewParser(cfg Config) *Parser {
	return &Parser{config: cfg}
}

// Parse decodes raw as JSON, validates it against MCQListSchema and then
// the validator chain. All failures are generation errors.
func (p *Parser) Parse(raw string) (mcq.List, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return mcq.List{}, mcq.NewError(mcq.KindGeneration, "LLM returned invalid JSON format.")
	}

	sch, err := MCQListSchema.Compile()
	if err != nil {
		return mcq.List{}, mcq.Wrap(mcq.KindGeneration, err, "Invalid MCQ schema")
	}
	if err := sch.Validate(parsed); err != nil {
		return mcq.List{}, &mcq.Error{
			Kind:    mcq.KindGeneration,
			Message: "schema validation failed:",
			Details: schemaDetails(err),
		}
	}

	var list mcq.List
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return mcq.List{}, mcq.Wrap(mcq.KindGeneration, err, "decode MCQs")
	}

	var details []string
	for i := range list.MCQs {
		for _, v := range p.config.Validators {
			if verr := v.Validate(&list.MCQs[i]); verr != nil {
				verr.Index = i
				details = append(details, verr.Error())
				break
			}
		}
	}
	if len(details) > 0 {
		return mcq.List{}, &mcq.Error{
			Kind:    mcq.KindGeneration,
			Message: "schema validation failed:",
			Details: details,
		}
	}

	return list, nil
}

// schemaDetails flattens a jsonschema error into "<location>: <reason>"
// lines.
func schemaDetails(err error) []string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	var details []string
	for _, unit := range verr.BasicOutput().Errors {
		if unit.Error == nil {
			continue
		}
		loc := unit.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		d := fmt.Sprintf("%s: %s", loc, unit.Error.String())
		if strings.HasPrefix(unit.Error.String(), "validation failed") || seen[d] {
			continue
		}
		seen[d] = true
		details = append(details, d)
	}
	if len(details) == 0 {
		return []string{verr.Error()}
	}
	sort.Strings(details)
	return details
}
