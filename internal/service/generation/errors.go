package generation

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates a call was attempted without a credential.
var ErrMissingAPIKey = errors.New("generation: api key is required")

// ServiceError reports a failed exchange with the generation service: a
// transport failure, a non-success status or an explicit error payload.
type ServiceError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("generation: %s: %v", e.Op, e.Err)
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("generation: %s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("generation: %s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("generation: %s: %s", e.Op, e.Message)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ParsingError reports a successful response whose shape could not be
// understood. Raw holds the body as received.
type ParsingError struct {
	Op     string
	Reason string
	Raw    []byte
	Err    error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("generation: %s: unrecognised response: %s", e.Op, e.Reason)
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

func parsingError(op, reason string, raw []byte) *ParsingError {
	return &ParsingError{Op: op, Reason: reason, Raw: append([]byte(nil), raw...)}
}
