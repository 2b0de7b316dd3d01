package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransientNetwork = errors.New("transient network error")
	ErrDecodeMismatch   = errors.New("upstream payload mismatch")
	ErrStoreWrite       = errors.New("store write failed")
	ErrNotFound         = errors.New("not found")
	ErrSuperseded       = errors.New("superseded by a newer request")
	ErrInvalidPage      = errors.New("page must not be negative")
)

type FetchErrorKind int

const (
	FetchErrorTransient FetchErrorKind = iota
	FetchErrorDecode
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchErrorTransient:
		return "transient-network"
	case FetchErrorDecode:
		return "decode-mismatch"
	default:
		return "unknown"
	}
}

// FetchError is returned for every failed upstream call. errors.Is matches it
// against ErrTransientNetwork or ErrDecodeMismatch depending on Kind.
type FetchError struct {
	Kind FetchErrorKind
	Op   string
	Err  error
}

func NewTransientError(op string, err error) *FetchError {
	return &FetchError{Kind: FetchErrorTransient, Op: op, Err: err}
}

func NewDecodeError(op string, err error) *FetchError {
	return &FetchError{Kind: FetchErrorDecode, Op: op, Err: err}
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransientNetwork:
		return e.Kind == FetchErrorTransient
	case ErrDecodeMismatch:
		return e.Kind == FetchErrorDecode
	}
	return false
}

// Retryable reports whether the caller may retry err with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork)
}
