// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Reason is a machine-checkable error code surfaced to callers.
type Reason string

const (
	ReasonProviderUnavailable Reason = "provider_unavailable"
	ReasonValidation          Reason = "validation_error"
	ReasonPartialFailure      Reason = "persistence_partial_failure"
	ReasonHardFailure         Reason = "persistence_hard_failure"
	ReasonParse               Reason = "parse_error"
	ReasonNotFound            Reason = "not_found"
	ReasonInternal            Reason = "internal"
)

// ErrProviderUnavailable marks failures of the search or text-generation
// collaborators: a missing key, an unreachable endpoint, or a bad response.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Error carries a reason code plus human-readable detail.
type Error struct {
	Reason Reason
	Detail string
	Err    error
}

// NewError builds an *Error.
func NewError(reason Reason, detail string, err error) *Error {
	return &Error{Reason: reason, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// ReasonOf returns the reason code carried by err, or ReasonInternal when
// err carries none.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return ReasonProviderUnavailable
	}
	return ReasonInternal
}

// ProviderError wraps err as a provider_unavailable failure of the named
// collaborator.
func ProviderError(provider string, err error) *Error {
	return NewError(ReasonProviderUnavailable, provider, fmt.Errorf("%w: %w", ErrProviderUnavailable, err))
}
