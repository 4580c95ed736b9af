package explain

import (
	"errors"
	"fmt"
)

// Kind classifies a section explanation failure.
type Kind string

const (
	KindBlocked          Kind = "model_blocked"
	KindBadFormat        Kind = "model_bad_format"
	KindParse            Kind = "model_parse_error"
	KindInvalidStructure Kind = "model_invalid_structure"
	KindModel            Kind = "model_error"
)

// Error is a section-scoped failure. It is reported inside the section's
// result and never aborts the rest of the request.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBlocked:
		if e.Detail == "" {
			return "the model declined to explain this section (content blocked)"
		}
		return fmt.Sprintf("the model declined to explain this section (content blocked: %s)", e.Detail)
	case KindBadFormat:
		return "the model response did not contain a JSON object"
	case KindParse:
		return fmt.Sprintf("failed to parse the model response: %s", e.Detail)
	case KindInvalidStructure:
		return fmt.Sprintf("the model response has an invalid structure: %s", e.Detail)
	default:
		return fmt.Sprintf("the model request failed: %s", e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newError(kind Kind, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}
