package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a store does not exist or is not owned by the caller
	ErrNotFound = errors.New("store not found")

	// ErrDuplicateStore is returned when (platform, storeUrl, owner) is already registered
	ErrDuplicateStore = errors.New("store already exists")

	// ErrUnsupportedPlatform is returned when no adapter is registered for a platform
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// ValidationError is a client fault in request fields
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a failed call to a platform API
type UpstreamError struct {
	Platform   Platform
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %v", e.Platform, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Platform, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a storage layer failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
