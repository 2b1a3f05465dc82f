// Package output renders CLI results as aligned tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cast"

	"github.com/telhawk-systems/tableviews/pkg/model"
)

// Formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

// Printer writes messages to an output and an error stream.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// NewPrinter returns a printer writing to out and errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

// Stdio returns a printer for the process's standard streams.
func Stdio() *Printer {
	return NewPrinter(os.Stdout, os.Stderr)
}

func (p *Printer) Success(format string, a ...any) {
	successColor.Fprintf(p.Out, "✓ "+format+"\n", a...)
}

func (p *Printer) Error(format string, a ...any) {
	errorColor.Fprintf(p.Err, "✗ "+format+"\n", a...)
}

func (p *Printer) Info(format string, a ...any) {
	infoColor.Fprintf(p.Out, format+"\n", a...)
}

// Warn writes to the error stream so warnings never mix with JSON output.
func (p *Printer) Warn(format string, a ...any) {
	warnColor.Fprintf(p.Err, "⚠ "+format+"\n", a...)
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	return f == FormatTable || f == FormatJSON
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w. Short rows are padded with empty cells.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len([]rune(header))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i := range t.headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(w, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

// RecordTable builds a table of records over the given columns. Dual-value
// columns show both values, and suffixes follow the value.
func RecordTable(cols []model.ColumnMetaData, records []model.Record) *Table {
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Heading
	}
	t := NewTable(headers)
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = Cell(rec, c)
		}
		t.AddRow(row)
	}
	return t
}

// Cell formats one record value for display.
func Cell(rec model.Record, c model.ColumnMetaData) string {
	v := FormatValue(rec[c.Key])
	if c.Key2 != "" {
		v2 := FormatValue(rec[c.Key2])
		switch {
		case v == "":
			v = v2
		case v2 != "":
			v = v + " / " + v2
		}
	}
	if v != "" && c.Suffix != "" {
		v += " " + c.Suffix
	}
	return v
}

// FormatValue renders a decoded JSON value as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
