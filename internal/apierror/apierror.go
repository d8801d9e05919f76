// Package apierror provides standardized error response structures for the API
// and the domain error taxonomy used by the service layer. All errors returned
// to clients go through this package to ensure consistency and to prevent
// leaking internal details (stack traces, DB errors, etc.).
package apierror

import "fmt"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ─── Domain taxonomy ─────────────────────────────────────────────────────────
// Services return these; handlers map them to HTTP status codes:
// ValidationError → 422, NotFoundError → 404, ConflictError → 409,
// ExternalServiceError → 502.

// ValidationError identifies bad or missing input. Fields maps the offending
// field name to a human-readable reason.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string { return e.Detail }

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Validation builds a single-field validation error.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{
		Detail: "Error de validacion: " + reason,
		Fields: map[string]string{field: reason},
	}
}

// NotFoundError signals a missing row: unknown client, valuation, consignment
// id, or an undefined pricing weight / clothing price row.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " no encontrado" }

func NotFound(resource string) *NotFoundError { return &NotFoundError{Resource: resource} }

// ConflictError signals an illegal state-machine transition or a duplicate
// finalize attempt.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

func Conflict(detail string) *ConflictError { return &ConflictError{Detail: detail} }

// ExternalServiceError signals a gateway timeout, unreachable host, or an
// ambiguous remote response. Local state is never committed on one.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("servicio externo %s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func External(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}
