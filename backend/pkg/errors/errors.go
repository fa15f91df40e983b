package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents entity field validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeContract represents wrong-entity-type contract errors
	ErrorTypeContract ErrorType = "contract"
	// ErrorTypeIntegrity represents referential integrity errors
	ErrorTypeIntegrity ErrorType = "integrity"
	// ErrorTypeConnectivity represents storage connectivity errors
	ErrorTypeConnectivity ErrorType = "connectivity"
	// ErrorTypeGraph represents graph storage operation errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeUnsupported represents not-implemented operations
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeReview represents AI review service errors
	ErrorTypeReview ErrorType = "review"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's taxonomy type. Typed errors embedding
// BaseError expose this through promotion, which is what IsErrorType
// relies on.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ErrValidation is returned when an entity field is outside its declared domain
type ErrValidation struct {
	*BaseError
	Field string
}

func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s: %s", field, reason), nil),
		Field:     field,
	}
}

// ErrInvalidEntity is returned when the wrong entity type reaches a repository operation
type ErrInvalidEntity struct {
	*BaseError
	Expected string
}

func NewInvalidEntity(expected string) *ErrInvalidEntity {
	return &ErrInvalidEntity{
		BaseError: NewBaseError(ErrorTypeContract, fmt.Sprintf("expected a %s instance", expected), nil),
		Expected:  expected,
	}
}

// Graph Errors

// ErrClaimNotFound is returned when an edge references a claim that does not exist
type ErrClaimNotFound struct {
	*BaseError
	ClaimID string
}

func NewClaimNotFound(claimID string) *ErrClaimNotFound {
	return &ErrClaimNotFound{
		BaseError: NewBaseError(ErrorTypeIntegrity, fmt.Sprintf("claim not found: %s", claimID), nil),
		ClaimID:   claimID,
	}
}

// ErrConnectionFailed is returned when the Neo4j connection cannot be established
type ErrConnectionFailed struct {
	*BaseError
	URI string
}

func NewConnectionFailed(uri string, err error) *ErrConnectionFailed {
	return &ErrConnectionFailed{
		BaseError: NewBaseError(ErrorTypeConnectivity, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrNotConnected is returned when a session is requested before connect
var ErrNotConnected = NewBaseError(ErrorTypeConnectivity, "not connected to database, call Connect first", nil)

// ErrQueryFailed is returned when a graph query fails
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrEdgeLookupUnsupported signals that edges are reached only through claim traversal
var ErrEdgeLookupUnsupported = NewBaseError(ErrorTypeUnsupported, "edge retrieval by id is not implemented, edges are accessed via claims", nil)

// Review Errors

// ErrReviewFailed is returned when the AI review request fails
type ErrReviewFailed struct {
	*BaseError
	Model string
}

func NewReviewFailed(model string, err error) *ErrReviewFailed {
	return &ErrReviewFailed{
		BaseError: NewBaseError(ErrorTypeReview, "review request failed", err),
		Model:     model,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error belongs to a taxonomy category, walking
// the wrap chain until a categorized error is found
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if categorized, ok := err.(interface{ Category() ErrorType }); ok {
			return categorized.Category() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Validation and contract violations never succeed on retry
	if IsErrorType(err, ErrorTypeValidation) || IsErrorType(err, ErrorTypeContract) {
		return false
	}
	// Connectivity and storage errors may clear up; upserts make retries safe
	if IsErrorType(err, ErrorTypeConnectivity) || IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	return false
}
