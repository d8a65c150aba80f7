//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Command pgedge-shopmcp serves e-commerce analytics over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-shopmcp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
