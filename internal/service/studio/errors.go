package studio

import (
	"errors"
	"fmt"

	"github.com/zhouzirui/artifex/backend/internal/service/generation"
	"github.com/zhouzirui/artifex/backend/internal/service/mask"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy with another request")
)

// ValidationError reports an unmet precondition. The session is unchanged
// and no service call was made.
type ValidationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(op, reason string) *ValidationError {
	return &ValidationError{Op: op, Reason: reason}
}

// ErrorKind classifies errors for presentation.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindService    ErrorKind = "service"
	KindParsing    ErrorKind = "parsing"
	KindBusy       ErrorKind = "busy"
	KindNotFound   ErrorKind = "not_found"
	KindInternal   ErrorKind = "internal"
)

// KindOf reports the kind of err.
func KindOf(err error) ErrorKind {
	var (
		validationErr *ValidationError
		emptyMask     mask.EmptyMaskError
		parseErr      *generation.ParsingError
		serviceErr    *generation.ServiceError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrSessionBusy):
		return KindBusy
	case errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.As(err, &validationErr),
		errors.As(err, &emptyMask),
		errors.Is(err, mask.ErrUndecodableCanvas),
		errors.Is(err, generation.ErrMissingAPIKey):
		return KindValidation
	case errors.As(err, &parseErr):
		return KindParsing
	case errors.As(err, &serviceErr):
		return KindService
	default:
		return KindInternal
	}
}

// RawBody returns the unrecognised response body carried by a parsing
// failure, if any.
func RawBody(err error) []byte {
	var parseErr *generation.ParsingError
	if errors.As(err, &parseErr) {
		return parseErr.Raw
	}
	return nil
}
