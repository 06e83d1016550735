// Package validator turns raw model output into a checked mcq.List.
package validator

import (
	"fmt"

	"github.com/abhisek/quizrag/internal/mcq"
)

// Validator checks one parsed MCQ beyond what the JSON schema expresses.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "options" or "answer-key".
	Name() string

	// Validate returns nil if q passes.
	Validate(q *mcq.MCQ) *ValidationError
}

// ValidationError describes why an MCQ failed a validator.
type ValidationError struct {
	Validator string
	Message   string

	// Index is the MCQ's position in the batch.
	Index int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: mcqs[%d]: %s", e.Validator, e.Index, e.Message)
}

// Labels are the option labels every MCQ must carry.
var Labels = []string{"A", "B", "C", "D"}

// OptionsValidator requires exactly the labels A, B, C and D, each with
// non-blank text.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *mcq.MCQ) *ValidationError {
	if len(q.Options) != len(Labels) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d options, got %d", len(Labels), len(q.Options)),
		}
	}
	for _, l := range Labels {
		text, ok := q.Options[l]
		if !ok {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("missing option %q", l),
			}
		}
		if isBlank(text) {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %q is empty", l),
			}
		}
	}
	return nil
}

// AnswerKeyValidator requires the answer to name one of the options.
type AnswerKeyValidator struct{}

func (v *AnswerKeyValidator) Name() string { return "answer-key" }

func (v *AnswerKeyValidator) Validate(q *mcq.MCQ) *ValidationError {
	if _, ok := q.Options[q.Answer]; !ok {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("answer %q is not one of the option labels", q.Answer),
		}
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
