// Package schema declares the expected columns of each flat table and decodes
// raw rows against them. Every column has a fixed kind; identifiers that look
// numeric stay strings.
package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind is the declared type of a column.
type Kind int

const (
	String Kind = iota
	Float
	Int
	Bool
	Enum
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Enum:
		return "enum"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrNoHeader is returned when a table has no header row.
	ErrNoHeader = errors.New("schema: missing header row")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("schema: missing required column")
	// ErrDuplicateColumn is returned when a header names a column twice.
	ErrDuplicateColumn = errors.New("schema: duplicate column")
)

// TypeError reports a cell that does not match its declared kind.
type TypeError struct {
	Table  string
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Kind   Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("schema: %s row %d column %q: cannot parse %q as %s", e.Table, e.Row, e.Column, e.Value, e.Kind)
}

// Column declares one expected column.
type Column struct {
	Name     string
	Kind     Kind
	Required bool     // must be present in the header
	NotBlank bool     // every cell must be non-empty
	Allowed  []string // Enum only
}

// Table declares the columns of one flat file. Columns not declared are ignored.
type Table struct {
	Name    string
	Columns []Column
}

// Decoder decodes rows of one table after the header has been validated.
type Decoder struct {
	table *Table
	index []int // column position in the header per declared column, -1 if absent
	row   int
}

// NewDecoder validates the header against the table and returns a decoder
// for the data rows that follow it.
func (t *Table) NewDecoder(header []string) (*Decoder, error) {
	if len(header) == 0 {
		return nil, eris.Wrapf(ErrNoHeader, "table %s", t.Name)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[name]; dup {
			return nil, eris.Wrapf(ErrDuplicateColumn, "table %s: %q", t.Name, name)
		}
		pos[name] = i
	}

	d := &Decoder{table: t, index: make([]int, len(t.Columns))}
	for i, col := range t.Columns {
		p, ok := pos[col.Name]
		if !ok {
			if col.Required {
				return nil, eris.Wrapf(ErrMissingColumn, "table %s: %q", t.Name, col.Name)
			}
			p = -1
		}
		d.index[i] = p
	}
	return d, nil
}

// Decode converts one raw record into a typed row.
func (d *Decoder) Decode(record []string) (Row, error) {
	d.row++
	row := Row{Num: d.row, values: make(map[string]any, len(d.table.Columns))}

	for i, col := range d.table.Columns {
		p := d.index[i]
		raw := ""
		if p >= 0 && p < len(record) {
			raw = record[p]
		}

		if strings.TrimSpace(raw) == "" {
			if col.NotBlank {
				return Row{}, &TypeError{Table: d.table.Name, Row: d.row, Column: col.Name, Value: raw, Kind: col.Kind}
			}
			continue
		}

		v, ok := parseCell(col, raw)
		if !ok || (v == nil && col.NotBlank) {
			return Row{}, &TypeError{Table: d.table.Name, Row: d.row, Column: col.Name, Value: raw, Kind: col.Kind}
		}
		if v != nil {
			row.values[col.Name] = v
		}
	}
	return row, nil
}

// Blank reports whether every cell of a record is empty.
func Blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseCell(col Column, raw string) (any, bool) {
	switch col.Kind {
	case String:
		return raw, true
	case Enum:
		if !slices.Contains(col.Allowed, raw) {
			return nil, false
		}
		return raw, true
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsInf(f, 0) {
			return nil, false
		}
		if math.IsNaN(f) {
			return nil, true
		}
		return f, true
	case Int:
		s := strings.TrimSpace(raw)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return int(n), true
		}
		// Counts written through a float column ("3.0") are accepted when integral.
		f, err := strconv.ParseFloat(s, 64)
		if math.IsNaN(f) {
			return nil, true
		}
		if err != nil || f != math.Trunc(f) || f >= math.MaxInt || f < math.MinInt {
			return nil, false
		}
		return int(f), true
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// Row is one decoded data row. Blank cells and undeclared columns are absent.
type Row struct {
	Num    int
	values map[string]any
}

// Has reports whether the column has a value in this row.
func (r Row) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// String returns a string or enum cell, or "" when absent.
func (r Row) String(col string) string {
	s, _ := r.values[col].(string)
	return s
}

// Float returns a float cell.
func (r Row) Float(col string) (float64, bool) {
	f, ok := r.values[col].(float64)
	return f, ok
}

// Int returns an int cell.
func (r Row) Int(col string) (int, bool) {
	n, ok := r.values[col].(int)
	return n, ok
}

// Bool returns a bool cell.
func (r Row) Bool(col string) (bool, bool) {
	b, ok := r.values[col].(bool)
	return b, ok
}

// FloatOr returns a float cell or zero.
func (r Row) FloatOr(col string) float64 {
	f, _ := r.Float(col)
	return f
}

// IntOr returns an int cell or zero.
func (r Row) IntOr(col string) int {
	n, _ := r.Int(col)
	return n
}

// BoolOr returns a bool cell or false.
func (r Row) BoolOr(col string) bool {
	b, _ := r.Bool(col)
	return b
}
