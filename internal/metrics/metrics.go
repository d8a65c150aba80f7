//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics holds the Prometheus instrumentation for MCP tool calls
// and the schema cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ToolCalls.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeFailure   = "failure"
)

// Metrics owns a registry so tests and multiple servers in one process
// do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	CacheMisses  *prometheus.CounterVec
}

// New creates and registers the collectors, plus Go runtime and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopmcp_tool_calls_total",
				Help: "Total number of MCP tool calls",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopmcp_tool_duration_seconds",
				Help:    "MCP tool call duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopmcp_schema_cache_misses_total",
				Help: "Schema reflector cache misses by lookup kind",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		m.ToolCalls,
		m.ToolDuration,
		m.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTool records one finished tool call.
func (m *Metrics) ObserveTool(tool, outcome string, elapsed time.Duration) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// CacheMiss counts a reflector cache miss. It matches the reflector's
// miss hook signature.
func (m *Metrics) CacheMiss(kind string) {
	m.CacheMisses.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
