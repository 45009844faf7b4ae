package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// ErrSourceUnavailable reports a network, timeout or HTTP status failure.
type ErrSourceUnavailable struct {
	Source string
	Err    error
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Err }

// ErrParseFailure means the retrieved content did not yield a usable value.
type ErrParseFailure struct {
	Source  string
	Message string
}

func (e *ErrParseFailure) Error() string {
	return fmt.Sprintf("%s: parse failure: %s", e.Source, e.Message)
}

// ErrOutOfRange is a parsed value outside the asset's sanity bounds.
// Callers treat it the same as ErrParseFailure.
type ErrOutOfRange struct {
	Source string
	Value  string
	Min    string
	Max    string
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("%s: value %s outside [%s, %s]", e.Source, e.Value, e.Min, e.Max)
}

// ErrStorageUnavailable marks a missing or corrupt backing file. Stores
// downgrade it to an empty result and only log it.
type ErrStorageUnavailable struct {
	Path string
	Err  error
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("storage %s unavailable: %v", e.Path, e.Err)
}

func (e *ErrStorageUnavailable) Unwrap() error { return e.Err }

func IsSourceUnavailable(err error) bool {
	var target *ErrSourceUnavailable
	return stderrors.As(err, &target)
}

func IsStorageUnavailable(err error) bool {
	var target *ErrStorageUnavailable
	return stderrors.As(err, &target)
}
