//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"strings"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

// Size holds the row targets for one size preset.
type Size struct {
	Name      string
	Customers int
	Products  int
	Orders    int
}

// Sizes are the supported presets.
var Sizes = map[string]Size{
	"small":  {Name: "small", Customers: 50, Products: 150, Orders: 600},
	"medium": {Name: "medium", Customers: 300, Products: 900, Orders: 7000},
	"large":  {Name: "large", Customers: 1500, Products: 4000, Orders: 40000},
}

// ParseSize resolves a preset name, case-insensitively.
func ParseSize(name string) (Size, error) {
	s, ok := Sizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Size{}, apperrors.Validation("size", "must be one of: small, medium, large (got %q)", name)
	}
	return s, nil
}
