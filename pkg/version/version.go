//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package version provides build and version information for pgedge-shopmcp.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program and MCP server name.
const Name = "pgedge-shopmcp"

// Build information set at compile time via ldflags.
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf(
		"%s %s (commit: %s, built: %s, go: %s)",
		Name, Version, Commit, BuildDate, runtime.Version(),
	)
}

// Short returns just the version string.
func Short() string {
	return Version
}
