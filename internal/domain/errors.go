// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrOutOfRange is returned when a playlist index does not exist.
	ErrOutOfRange = errors.New("index out of range")

	// ErrPlaylistEmpty is returned when an operation requires a non-empty playlist.
	ErrPlaylistEmpty = errors.New("playlist is empty")

	// ErrDuplicateTrack is returned when a local file with the same name and size is already in the playlist.
	ErrDuplicateTrack = errors.New("track already exists in playlist")

	// ErrPlaybackRejected is returned when the media element refuses to start playback.
	ErrPlaybackRejected = errors.New("playback rejected")

	// ErrDecodeOrNetwork is reported when the media element cannot decode or fetch a source.
	ErrDecodeOrNetwork = errors.New("decode or network failure")

	// ErrPersistenceCorrupt is returned when a persisted value cannot be parsed.
	ErrPersistenceCorrupt = errors.New("persisted data is corrupt")

	// ErrRemoteSearch is returned when the remote catalog query fails.
	ErrRemoteSearch = errors.New("remote search failed")

	// ErrInvalidVolume is returned when the volume is not a number.
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrNoSource is returned when the media element has no source loaded.
	ErrNoSource = errors.New("no source loaded")

	// ErrLocatorRevoked is returned when a transient locator was revoked or never registered.
	ErrLocatorRevoked = errors.New("locator revoked")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrClosed is returned by components used after shutdown.
	ErrClosed = errors.New("component closed")
)

// IndexError reports an invalid playlist index.
type IndexError struct {
	Op     string
	Index  int
	Length int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0,%d)", e.Op, e.Index, e.Length)
}

// Unwrap returns ErrOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrOutOfRange
}

// NewIndexError creates a new IndexError.
func NewIndexError(op string, index, length int) *IndexError {
	return &IndexError{Op: op, Index: index, Length: length}
}

// MediaError represents a failure raised by the media element.
type MediaError struct {
	Op     string  // Operation that failed (e.g., "load", "play", "decode")
	Source Locator // Source being handled
	Err    error   // Underlying error
}

// Error implements the error interface.
func (e *MediaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("media %s failed for '%s': %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("media %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *MediaError) Unwrap() error {
	return e.Err
}

// NewMediaError creates a new MediaError.
func NewMediaError(op string, source Locator, err error) *MediaError {
	return &MediaError{Op: op, Source: source, Err: err}
}

// RemoteSearchError wraps a catalog failure with the query that caused it.
type RemoteSearchError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *RemoteSearchError) Error() string {
	return fmt.Sprintf("remote search for %q failed: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *RemoteSearchError) Unwrap() []error {
	return []error{ErrRemoteSearch, e.Err}
}

// NewRemoteSearchError creates a new RemoteSearchError.
func NewRemoteSearchError(query string, err error) *RemoteSearchError {
	return &RemoteSearchError{Query: query, Err: err}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "playlist", "preferences", "history")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "PlaybackService", "PlaylistService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
