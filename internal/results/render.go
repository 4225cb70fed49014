// Package results renders query results as aligned text tables.
package results

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/queryreport/internal/database"
)

// Width heuristic. Widths come from the first SampleSize displayed rows only.
const (
	SampleSize     = 5
	MinColumnWidth = 10
	MaxSampleWidth = 20
)

// NullMarker is printed in place of null values.
const NullMarker = database.NullText

// NoResults is the whole output for a result without rows.
const NoResults = "No results found."

const (
	columnSeparator = " | "
	separatorRune   = "-"
)

// ErrFormat reports a row whose length does not match the column count.
type ErrFormat struct {
	Row  int
	Got  int
	Want int
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("format error: row %d has %d values, want %d", e.Row, e.Got, e.Want)
}

// Render formats a query result as a text table followed by a row-count
// footer. The output always ends with a newline.
func Render(r *database.QueryResult, limit Limit) (string, error) {
	if r == nil {
		return NoResults + "\n", nil
	}
	if err := validate(r); err != nil {
		return "", err
	}
	if len(r.Rows) == 0 {
		return NoResults + "\n", nil
	}

	shown := Visible(r.Rows, limit)
	sample := shown
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	widths := ColumnWidths(r.Columns, sample)

	var b strings.Builder

	header := renderRow(r.Columns, widths)
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(separatorRune, lipgloss.Width(header)))
	b.WriteString("\n")

	cells := make([]string, len(r.Columns))
	for _, row := range shown {
		for i, v := range row {
			cells[i] = cellText(v)
		}
		b.WriteString(renderRow(cells, widths))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(shown) < len(r.Rows) {
		fmt.Fprintf(&b, "Showing %d of %d rows\n", len(shown), len(r.Rows))
	} else {
		fmt.Fprintf(&b, "Total rows: %d\n", len(r.Rows))
	}

	return b.String(), nil
}

// Visible returns the rows selected for display under limit.
func Visible(rows []database.Row, limit Limit) []database.Row {
	if n, ok := limit.Get(); ok && n < len(rows) {
		return rows[:n]
	}
	return rows
}

// ColumnWidths derives one width per column from the names and a row sample.
// Each sampled value contributes at most MaxSampleWidth; the result is never
// below MinColumnWidth or the width of the column name.
func ColumnWidths(columns []string, sample []database.Row) []int {
	widths := make([]int, len(columns))

	// Use display width (not byte length) for accurate measurement
	for i, col := range columns {
		widths[i] = max(lipgloss.Width(col), MinColumnWidth)
	}

	for _, row := range sample {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			w := min(lipgloss.Width(cellText(v)), MaxSampleWidth)
			if w > widths[i] {
				widths[i] = w
			}
		}
	}

	return widths
}

func validate(r *database.QueryResult) error {
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return &ErrFormat{Row: i, Got: len(row), Want: len(r.Columns)}
		}
	}
	return nil
}

func cellText(v database.Value) string {
	if v.IsNull() {
		return NullMarker
	}
	return v.String()
}

// renderRow right-aligns each cell to its width. Cells wider than their
// column are printed in full.
func renderRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := widths[i] - lipgloss.Width(cell)
		if pad > 0 {
			cell = strings.Repeat(" ", pad) + cell
		}
		parts[i] = cell
	}
	return strings.Join(parts, columnSeparator)
}
