//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package apperrors defines the error kinds surfaced to tool callers.
// None of them are retried: each is deterministic for a given schema
// and input.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is classification.
var (
	ErrMissingSchema  = errors.New("missing schema")
	ErrColumnNotFound = errors.New("column not found")
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
	ErrPermission     = errors.New("permission denied")
)

// MissingSchemaError reports every required table that is absent.
type MissingSchemaError struct {
	Schema  string
	Missing []string
}

func (e *MissingSchemaError) Error() string {
	schema := e.Schema
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf("missing required tables in schema '%s': %s; create your schema first, then retry",
		schema, strings.Join(e.Missing, ", "))
}

func (e *MissingSchemaError) Is(target error) bool { return target == ErrMissingSchema }

// ColumnNotFoundError means no candidate column exists on a table.
type ColumnNotFoundError struct {
	Table      string
	Candidates []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("could not find any of [%s] in table '%s'",
		strings.Join(e.Candidates, ", "), e.Table)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// ConfigurationError means every fallback path for a metric is
// exhausted. Message names what the schema needs.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError rejects caller input before any database work.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PermissionError rejects a mutating operation while writes are disabled.
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("writes are disabled; set ALLOW_WRITES=1 to enable %s", e.Action)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

// Configuration builds a ConfigurationError from a format string.
func Configuration(format string, args ...any) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError for a field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Code returns a stable machine-readable code for taxonomy errors,
// or "" for anything else.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingSchema):
		return "missing_schema"
	case errors.Is(err, ErrColumnNotFound):
		return "column_not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrPermission):
		return "permission_denied"
	default:
		return ""
	}
}
