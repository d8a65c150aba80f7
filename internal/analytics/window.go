//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analytics

import (
	"time"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

// Window is the half-open interval [Start, End) in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns [now - days, now).
func LastDays(now time.Time, days int) Window {
	end := now.UTC()
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

func validateDays(days int) error {
	if days < 1 {
		return apperrors.Validation("days", "must be a positive integer, got %d", days)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 1 {
		return apperrors.Validation("limit", "must be a positive integer, got %d", limit)
	}
	return nil
}
