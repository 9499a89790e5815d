package errors

import (
	"fmt"
	"time"

	"github.com/substratelabs/hsi/internal/types"
)

// Error types for the hierarchy-search-index system
type ErrorType string

const (
	// Graph and traversal errors
	ErrorTypeProvider  ErrorType = "provider"
	ErrorTypeTraversal ErrorType = "traversal"
	ErrorTypeScan      ErrorType = "scan"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ProviderError reports a failure inside the graph query collaborator
// (direct-children lookup, global scan). It is fatal to the current search
// call and is never retried internally; the caller owns retry policy.
type ProviderError struct {
	Type       ErrorType
	Operation  string
	Node       types.NodeID
	Underlying error
	Timestamp  time.Time
}

// NewProviderError creates a provider error with context
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{
		Type:       ErrorTypeProvider,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithNode adds the node the provider was queried about
func (e *ProviderError) WithNode(id types.NodeID) *ProviderError {
	e.Node = id
	return e
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Node != 0 {
		return fmt.Sprintf("%s %s failed for node %d: %v", e.Type, e.Operation, e.Node, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// ScanError reports a failure while scanning a source unit in local-scope
// search or while indexing a file.
type ScanError struct {
	Type       ErrorType
	FileID     types.FileID
	FilePath   string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewScanError creates a new scan error
func NewScanError(op string, err error) *ScanError {
	return &ScanError{
		Type:       ErrorTypeScan,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error
func (e *ScanError) WithFile(fileID types.FileID, path string) *ScanError {
	e.FileID = fileID
	e.FilePath = path
	return e
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ScanError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nils
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
