//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package schema

import "github.com/pgEdge/pgedge-shopmcp/internal/apperrors"

// Pick returns the first candidate present in cols. Candidate order is
// the only tiebreak: an earlier name always wins.
func Pick(cols ColumnSet, table string, candidates ...string) (string, error) {
	if name := PickOptional(cols, candidates...); name != "" {
		return name, nil
	}
	return "", &apperrors.ColumnNotFoundError{
		Table:      table,
		Candidates: append([]string(nil), candidates...),
	}
}

// PickOptional returns the first candidate present in cols, or "".
func PickOptional(cols ColumnSet, candidates ...string) string {
	for _, c := range candidates {
		if cols.Has(c) {
			return c
		}
	}
	return ""
}
