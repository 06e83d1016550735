package mcq

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind string

const (
	KindInput         Kind = "input"
	KindLoader        Kind = "loader"
	KindIndexBuild    Kind = "index_build"
	KindIndexQuery    Kind = "index_query"
	KindPrompt        Kind = "prompt"
	KindGeneration    Kind = "generation"
	KindDeduplication Kind = "deduplication"
	KindConfig        Kind = "config"
)

// Stage returns the user-facing stage name for the kind.
func (k Kind) Stage() string {
	switch k {
	case KindInput, KindLoader:
		return "load"
	case KindIndexBuild, KindIndexQuery:
		return "index"
	case KindPrompt:
		return "prompt"
	case KindGeneration:
		return "generate"
	case KindDeduplication:
		return "dedupe"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every pipeline component.
// Callers branch on Kind rather than on the message text.
type Error struct {
	Kind    Kind
	Message string

	// Details lists individual violations, e.g. schema field errors.
	Details []string

	// Err is the lower-level cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Stage returns the pipeline stage the error is attributed to.
func (e *Error) Stage() string { return e.Kind.Stage() }

// NewError returns an *Error of the given kind without a cause.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an *Error of the given kind wrapping err. The message is
// built from format and args.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
