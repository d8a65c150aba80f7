//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package mcpserver

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

// ErrorResponse is the body of a tool result with isError set. Callers
// can act on these: fix an argument, create a table, enable writes.
type ErrorResponse struct {
	Error    bool   `json:"error"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	SQLState string `json:"sqlstate,omitempty"`
}

// NewErrorResult builds a structured error tool result.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return newErrorResult(ErrorResponse{Error: true, Code: code, Message: message})
}

func newErrorResult(resp ErrorResponse) *mcp.CallToolResult {
	body, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(body))
	result.IsError = true
	return result
}

// toolError maps caller-actionable errors to an error result. It
// returns nil for system failures, which go back as protocol errors.
func toolError(err error) *mcp.CallToolResult {
	if code := apperrors.Code(err); code != "" {
		return NewErrorResult(code, err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code := sqlStateCode(pgErr.Code); code != "" {
			return newErrorResult(ErrorResponse{
				Error:    true,
				Code:     code,
				Message:  pgErr.Message,
				SQLState: pgErr.Code,
			})
		}
	}
	return nil
}

// sqlStateCode names user-caused PostgreSQL errors: data exceptions
// (22), integrity violations (23), syntax and access rules (42), check
// option violations (44) and statement timeouts. Anything else is "".
func sqlStateCode(state string) string {
	switch state {
	case "42601":
		return "syntax_error"
	case "42703":
		return "undefined_column"
	case "42P01":
		return "undefined_table"
	case "42883":
		return "undefined_function"
	case "42501":
		return "insufficient_privilege"
	case "22012":
		return "division_by_zero"
	case "22P02":
		return "invalid_input"
	case "57014":
		return "statement_timeout"
	}
	if len(state) < 2 {
		return ""
	}
	switch state[:2] {
	case "22":
		return "data_exception"
	case "23":
		return "constraint_violation"
	case "42":
		return "sql_error"
	case "44":
		return "check_option_violation"
	}
	return ""
}

func encodeResult(out any) (*mcp.CallToolResult, error) {
	if text, ok := out.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
