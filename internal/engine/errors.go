package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error returned by a trace operation.
//
// Apply and undo never return errors; impossible conditions during playback
// are reported as LogicWarnings instead. RuntimeError covers the
// caller-facing operations that take arguments, such as Seek.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodePositionOutOfRange indicates a seek outside [0, N].
	ErrCodePositionOutOfRange RuntimeErrorCode = "POSITION_OUT_OF_RANGE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsPositionError returns true if the error is an out-of-range seek.
// Uses errors.As to handle wrapped errors.
func IsPositionError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodePositionOutOfRange
	}
	return false
}

// NewPositionError creates a RuntimeError for a seek outside the log.
func NewPositionError(pos, length int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePositionOutOfRange,
		Message: fmt.Sprintf("position %d outside [0, %d]", pos, length),
		Details: map[string]string{
			"position": fmt.Sprintf("%d", pos),
			"length":   fmt.Sprintf("%d", length),
		},
	}
}

// LogicWarning records a playback sub-step that was skipped because the
// store did not match what the log expected.
//
// A log accepted by the builder never produces warnings. They surface
// programmer error in callers that construct traces directly with New.
type LogicWarning struct {
	// Position is the log index being applied or undone.
	Position int `json:"position"`

	// Op names the operation: a modification type, or "increment".
	Op string `json:"op"`

	// Element is the node id involved, when there is one.
	Element int `json:"element"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// String renders the warning on one line.
func (w LogicWarning) String() string {
	return fmt.Sprintf("%s at index %d, element %d: %s", w.Op, w.Position, w.Element, w.Message)
}
