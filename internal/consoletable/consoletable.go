// Package consoletable renders data as column aligned text tables.
package consoletable

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

const (
	defaultMargin       = 2
	defaultIndentation  = 4
	defaultMaxCellWidth = 60
)

// Bytes is a cell value, which is rendered as humanized byte size.
type Bytes uint64

// ConsoleTable prints formatted tables on the console.
type ConsoleTable struct {
	// Margin between columns
	Margin int
	// Indentation of the first column
	Indentation int
	// Longer cells are truncated. Zero means no limit.
	MaxCellWidth int

	// Target for output
	Target io.Writer

	header []string
	rows   [][]any
	title  string
}

// New returns a new console table with the given column headers.
func New(title string, header ...string) ConsoleTable {
	st := ConsoleTable{
		Margin:       defaultMargin,
		Indentation:  defaultIndentation,
		MaxCellWidth: defaultMaxCellWidth,
		Target:       os.Stdout,
		header:       header,
		rows:         make([][]any, 0),
		title:        title,
	}
	return st
}

// AddRow adds a row to the table. It panics when the number of cells does not match the header.
func (t *ConsoleTable) AddRow(cells ...any) {
	if len(cells) != len(t.header) {
		panic(fmt.Sprintf("Added rows need to have %d columns", len(t.header)))
	}
	t.rows = append(t.rows, cells)
}

// Print prints the table to its target.
func (t *ConsoleTable) Print() {
	fmt.Fprintf(t.Target, "%s:\n\n", t.title)
	if len(t.rows) == 0 {
		fmt.Fprintf(t.Target, "%sNo data\n", strings.Repeat(" ", t.Indentation))
		return
	}
	rendered := make([][]string, 0, len(t.rows)+2)
	rendered = append(rendered, t.header)
	for _, row := range t.rows {
		r := make([]string, len(row))
		for i, v := range row {
			r[i] = t.renderCell(v)
		}
		rendered = append(rendered, r)
	}
	cols := make([]int, len(t.header))
	for _, row := range rendered {
		for i, s := range row {
			cols[i] = max(cols[i], utf8.RuneCountInString(s))
		}
	}
	separator := make([]string, len(cols))
	for i, w := range cols {
		separator[i] = strings.Repeat("-", w)
	}
	rendered = append(rendered[:1], append([][]string{separator}, rendered[1:]...)...)
	margin := strings.Repeat(" ", t.Margin)
	for n, row := range rendered {
		fmt.Fprint(t.Target, strings.Repeat(" ", t.Indentation))
		for i, s := range row {
			pad := strings.Repeat(" ", cols[i]-utf8.RuneCountInString(s))
			if n > 1 && isNumeric(t.rows[n-2][i]) {
				fmt.Fprint(t.Target, pad+s+margin)
			} else {
				fmt.Fprint(t.Target, s+pad+margin)
			}
		}
		fmt.Fprintln(t.Target)
	}
}

func (t *ConsoleTable) renderCell(v any) string {
	s := renderValue(v)
	if t.MaxCellWidth > 0 && utf8.RuneCountInString(s) > t.MaxCellWidth {
		r := []rune(s)
		s = string(r[:t.MaxCellWidth-1]) + "…"
	}
	return strings.ReplaceAll(s, "\n", " ")
}

func renderValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return humanize.Comma(int64(x))
	case int64:
		return humanize.Comma(x)
	case Bytes:
		return humanize.Bytes(uint64(x))
	case snowflake.ID:
		if x.IsZero() {
			return "-"
		}
		return x.String()
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return humanize.Time(x)
	case []string:
		return strings.Join(x, ", ")
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int64, Bytes:
		return true
	}
	return false
}
