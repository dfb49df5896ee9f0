// Package output renders command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/dhanwis/tutoradmin/internal/util"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q: want table, json or yaml", s)
	}
}

// DefaultCellWidth is the widest a table cell is allowed to render.
const DefaultCellWidth = 48

// Rows is the tabular view of a result.
type Rows struct {
	Headers []string
	Cells   [][]string
}

// Add appends a row.
func (r *Rows) Add(cells ...string) {
	r.Cells = append(r.Cells, cells)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Printer writes results in one format.
type Printer struct {
	w         io.Writer
	format    Format
	cellWidth int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{w: w, format: format, cellWidth: DefaultCellWidth}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Print writes data as JSON or YAML, or rows as a table. Empty tables print
// the empty message instead.
func (p *Printer) Print(data any, rows Rows, empty string) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(rows.Cells) == 0 {
			_, err := fmt.Fprintln(p.w, empty)
			return err
		}
		_, err := fmt.Fprintln(p.w, p.renderTable(rows))
		return err
	}
}

func (p *Printer) renderTable(rows Rows) string {
	cells := make([][]string, 0, len(rows.Cells))
	for _, row := range rows.Cells {
		out := make([]string, len(row))
		for i, cell := range row {
			out[i] = util.TruncateANSI(util.OrPlaceholder(cell), p.cellWidth)
		}
		cells = append(cells, out)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(rows.Headers...).
		Rows(cells...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// Heading writes a section title in table mode. JSON and YAML output stay
// machine-readable, so it is a no-op there.
func (p *Printer) Heading(title string) {
	if p.format != FormatTable {
		return
	}
	_, _ = fmt.Fprintln(p.w, headerStyle.UnsetPadding().Render(title))
}
