// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package herr defines the error taxonomy shared by every component of the
// retrieval core: a small set of kinds, a severity, and a structured
// details map, so collaborators can recover or report without string
// matching.
package herr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the taxonomy buckets from the
// component design.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindStorage       Kind = "storage"
	KindIngestion     Kind = "ingestion"
	KindEmbedding     Kind = "embedding"
	KindRetrieval     Kind = "retrieval"
	KindLLM           Kind = "llm"
	KindAPI           Kind = "api"
)

// Severity indicates how urgently an error needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is the structured error type used throughout the core.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	Details  map[string]any
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with the given kind, message and severity.
func New(kind Kind, severity Severity, msg string) *Error {
	return &Error{Kind: kind, Severity: severity, Message: msg, Details: map[string]any{}}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(kind Kind, severity Severity, msg string, cause error) *Error {
	return &Error{Kind: kind, Severity: severity, Message: msg, Cause: cause, Details: map[string]any{}}
}

// WithDetail attaches a key/value to the details map and returns the
// receiver for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// As extracts an *Error from err, following the Unwrap chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps an error's kind (refined by the deadline_exceeded,
// not_found and unavailable details flags) onto the status codes named in
// the external interface contract. Severity does not affect the status.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindAPI:
		if deadline, _ := e.Details["deadline_exceeded"].(bool); deadline {
			return http.StatusRequestTimeout
		}
		if notFound, _ := e.Details["not_found"].(bool); notFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindStorage, KindIngestion, KindEmbedding, KindRetrieval, KindLLM:
		if unavailable, _ := e.Details["unavailable"].(bool); unavailable {
			return http.StatusServiceUnavailable
		}
		if deadline, _ := e.Details["deadline_exceeded"].(bool); deadline {
			return http.StatusRequestTimeout
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
