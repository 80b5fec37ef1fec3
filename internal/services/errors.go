package services

import (
	"errors"
	"fmt"
)

var (
	ErrPersistence          = errors.New("persistence failure")
	ErrUploadFailed         = errors.New("file upload failed")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidVoteDirection = errors.New("vote direction must be 1 or -1")
	ErrInvalidLevelTable    = errors.New("invalid level table")
	ErrInvalidInput         = errors.New("invalid input")
	ErrFileTooLarge         = errors.New("file too large")
	ErrNoRewardAtLevel      = errors.New("no reward bound to the current level")
)

// ValidationError carries a user-facing reason for a rejected input.
type ValidationError struct {
	Kind   error
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, format string, args ...interface{}) error {
	return &ValidationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}
