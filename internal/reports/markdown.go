//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package reports

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is a Markdown table. Right marks columns aligned right.
type Table struct {
	Columns []string
	Right   []bool
	Rows    [][]string
}

// Section is one "## heading" block: free lines, then an optional table.
type Section struct {
	Heading string
	Lines   []string
	Table   *Table
}

// Report is a titled list of sections.
type Report struct {
	Title    string
	Lines    []string
	Sections []Section
}

// Add appends a section and returns it for further filling.
func (r *Report) Add(heading string) *Section {
	r.Sections = append(r.Sections, Section{Heading: heading})
	return &r.Sections[len(r.Sections)-1]
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# " + r.Title + "\n")
	for _, l := range r.Lines {
		b.WriteString(l + "\n")
	}
	for _, s := range r.Sections {
		b.WriteString("\n## " + s.Heading + "\n")
		for _, l := range s.Lines {
			b.WriteString(l + "\n")
		}
		if s.Table != nil {
			s.Table.render(&b)
		}
	}
	return strings.TrimSpace(b.String())
}

func (t *Table) render(b *strings.Builder) {
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	seps := make([]string, len(t.Columns))
	for i := range seps {
		seps[i] = "---"
		if i < len(t.Right) && t.Right[i] {
			seps[i] = "---:"
		}
	}
	b.WriteString("|" + strings.Join(seps, "|") + "|\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

func window(days int) string {
	return fmt.Sprintf("- Window: last **%d days**", days)
}
