package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used across the fetch, clean and write stages.
const (
	ErrCodeInvalidArgument       = "INVALID_ARGUMENT"
	ErrCodeStrategyFailure       = "STRATEGY_FAILURE"
	ErrCodeAllStrategiesFailed   = "ALL_STRATEGIES_FAILED"
	ErrCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	ErrCodeWriteFailed           = "WRITE_FAILED"
	ErrCodeInvalidConfig         = "INVALID_CONFIG"
)

// Diagnostic records why one strategy in a chain did not produce a result.
type Diagnostic struct {
	Strategy string `json:"strategy"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Strategy + ": " + d.Message
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
// Diagnostics is only set for ErrCodeAllStrategiesFailed, in attempt order.
// Strategy is only set for ErrCodeStrategyFailure.
type ScrapeError struct {
	Code        string
	Message     string
	Err         error // wrapped original error
	Strategy    string
	Diagnostics []Diagnostic
}

func (e *ScrapeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, d := range e.Diagnostics {
		b.WriteString("\n- ")
		b.WriteString(d.String())
	}
	return b.String()
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewInvalidArgument reports a required argument that is empty or blank.
func NewInvalidArgument(name string) *ScrapeError {
	return NewScrapeError(ErrCodeInvalidArgument, fmt.Sprintf("%q must be a non-empty string", name), nil)
}

// NewStrategyFailure reports that a single named strategy failed. It is
// never returned on its own; runners fold it into a Diagnostic.
func NewStrategyFailure(strategy string, err error) *ScrapeError {
	e := NewScrapeError(ErrCodeStrategyFailure, strategy+" failed", err)
	e.Strategy = strategy
	return e
}

// Diagnostic converts a strategy failure into its diagnostic entry. The
// message is the cause alone, without the code prefix.
func (e *ScrapeError) Diagnostic() Diagnostic {
	msg := e.Message
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return Diagnostic{Strategy: e.Strategy, Message: msg}
}

// NewDependencyUnavailable reports an optional collaborator that is not
// present in this runtime.
func NewDependencyUnavailable(dependency string, err error) *ScrapeError {
	return NewScrapeError(ErrCodeDependencyUnavailable, dependency+" is not available", err)
}

// NewAllStrategiesFailed reports that every strategy in the named chain failed.
// The diagnostics slice is copied.
func NewAllStrategiesFailed(chain string, diags []Diagnostic) *ScrapeError {
	return &ScrapeError{
		Code:        ErrCodeAllStrategiesFailed,
		Message:     fmt.Sprintf("all %s strategies failed", chain),
		Diagnostics: append([]Diagnostic(nil), diags...),
	}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
