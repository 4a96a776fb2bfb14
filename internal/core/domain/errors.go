package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrSessionNotFound      = errors.New("session not found")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrResolutionFailure    = errors.New("coordinates not found")
	ErrProvider             = errors.New("provider error")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type FailureKind string

const (
	FailureConfigurationMissing FailureKind = "configuration_missing"
	FailureResolution           FailureKind = "resolution_failure"
	FailureProvider             FailureKind = "provider_error"
)

// Failure is the error half of a component result. It unwraps to the
// sentinel matching its kind so callers can keep using IsKind.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

func NewFailure(kind FailureKind, detail string) *Failure {
	return &Failure{Kind: kind, Detail: detail}
}

// FailureFromError maps an error chain onto a failure kind. Anything that is
// not a configuration or resolution problem is reported as a provider error.
func FailureFromError(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case IsKind(err, ErrConfigurationMissing):
		return NewFailure(FailureConfigurationMissing, err.Error())
	case IsKind(err, ErrResolutionFailure):
		return NewFailure(FailureResolution, err.Error())
	default:
		return NewFailure(FailureProvider, err.Error())
	}
}

func (f *Failure) Error() string {
	if f == nil {
		return "failure"
	}
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	switch f.Kind {
	case FailureConfigurationMissing:
		return ErrConfigurationMissing
	case FailureResolution:
		return ErrResolutionFailure
	default:
		return ErrProvider
	}
}
