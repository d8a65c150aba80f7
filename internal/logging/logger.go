//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package logging provides structured logging for pgedge-shopmcp.
//
// All output goes to stderr. When the MCP server runs over stdio, stdout
// carries protocol frames and must never receive log lines.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Packages take child loggers from
// Component rather than writing to it directly.
var Logger zerolog.Logger

// Config selects the level and the output encoding.
type Config struct {
	Level string
	// Pretty renders human-readable console lines instead of JSON.
	Pretty bool

	// Output overrides the destination; nil means stderr.
	Output io.Writer
}

// Init replaces the global logger. An empty or unknown level means info.
func Init(cfg Config) {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Debug, Info and Warn start events on the global logger.
func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }

func init() {
	Init(Config{Level: "info", Pretty: true})
}
