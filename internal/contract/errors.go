package contract

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Kind classifies a domain failure.
type Kind string

// All error kinds raised by revscore.
const (
	KindConfiguration   Kind = "configuration"
	KindEmptyDataset    Kind = "empty_dataset"
	KindModelNotFound   Kind = "model_not_found"
	KindUpstreamService Kind = "upstream_service"
	KindDataSource      Kind = "data_source"
	KindInvalidInput    Kind = "invalid_input"
)

// Error wraps an errbuilder error with its domain kind.
type Error struct {
	*errbuilder.ErrBuilder
	Kind Kind `json:"kind"`
}

// Sentinels for errors.Is matching. Only the kind is compared.
var (
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrEmptyDataset    = &Error{Kind: KindEmptyDataset}
	ErrModelNotFound   = &Error{Kind: KindModelNotFound}
	ErrUpstreamService = &Error{Kind: KindUpstreamService}
	ErrDataSource      = &Error{Kind: KindDataSource}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ErrBuilder == nil {
		return fmt.Sprintf("[%s]", e.Kind)
	}
	msg := e.ErrBuilder.Msg
	if cause := e.ErrBuilder.Unwrap(); cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Message returns the message without kind or cause.
func (e *Error) Message() string {
	if e.ErrBuilder == nil {
		return ""
	}
	return e.ErrBuilder.Msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	if e.ErrBuilder == nil {
		return nil
	}
	return e.ErrBuilder.Unwrap()
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, builder *errbuilder.ErrBuilder) *Error {
	return &Error{ErrBuilder: builder, Kind: kind}
}

// NewConfigurationError reports a missing or malformed configuration or artifact.
func NewConfigurationError(message string, cause error) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newError(KindConfiguration, builder)
}

// NewEmptyDatasetError reports that there is nothing to train or evaluate on.
func NewEmptyDatasetError(message string) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	return newError(KindEmptyDataset, builder)
}

// NewModelNotFoundError reports that no model artifact exists for name.
// A version of 0 or less means the latest version was requested.
func NewModelNotFoundError(name string, version int) *Error {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("model", errors.New(name))
	msg := fmt.Sprintf("no trained model %q found; run training first", name)
	if version > 0 {
		errorMap.Set("version", errors.New(strconv.Itoa(version)))
		msg = fmt.Sprintf("model %q has no version %d", name, version)
	}
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(msg).
		WithDetails(errbuilder.NewErrDetails(errorMap))
	return newError(KindModelNotFound, builder)
}

// NewUpstreamServiceError reports a failed or timed out call to an external service.
func NewUpstreamServiceError(message string, cause error) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)
	if errors.Is(cause, context.DeadlineExceeded) {
		builder = builder.WithCode(errbuilder.CodeDeadlineExceeded)
	}
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newError(KindUpstreamService, builder)
}

// NewDataSourceError reports an unreachable or failing review store.
func NewDataSourceError(message string, cause error) *Error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return newError(KindDataSource, builder)
}

// NewInvalidInputError reports a rejected user-supplied value.
func NewInvalidInputError(field, message string) *Error {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set(field, errors.New(message))
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid %s: %s", field, message)).
		WithDetails(errbuilder.NewErrDetails(errorMap))
	return newError(KindInvalidInput, builder)
}
