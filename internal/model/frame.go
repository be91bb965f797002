package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

var nan = math.NaN()

// Layout selects the column arrangement of a multi-symbol frame.
type Layout int

const (
	// LayoutLevels keys columns by (attribute, symbol), attribute-major.
	LayoutLevels Layout = iota
	// LayoutPrefix flattens column keys to "SYMBOL_attribute", symbol-major.
	LayoutPrefix
	// LayoutStack concatenates per-symbol rows and carries the symbol as a row code.
	LayoutStack
)

// ParseLayout maps a layout name to its variant.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "levels":
		return LayoutLevels, nil
	case "prefix":
		return LayoutPrefix, nil
	case "stack":
		return LayoutStack, nil
	}
	return 0, fmt.Errorf("unknown layout %q (want levels, prefix or stack)", s)
}

func (l Layout) String() string {
	switch l {
	case LayoutLevels:
		return "levels"
	case LayoutPrefix:
		return "prefix"
	case LayoutStack:
		return "stack"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// ColumnKey identifies one frame column. Symbol is empty in stack layout,
// where the owning symbol lives in the per-row code instead.
type ColumnKey struct {
	Attr   Attribute
	Symbol string
}

// Name renders the flattened header name for the key.
func (k ColumnKey) Name() string {
	if k.Symbol == "" {
		return string(k.Attr)
	}
	return k.Symbol + "_" + string(k.Attr)
}

// Column is one named series of the frame, aligned to Frame.Dates.
type Column struct {
	Key    ColumnKey
	Values []float64
}

// Frame is a column-major merged quote table. Dates are sorted descending;
// cells absent from a symbol's response hold NaN.
type Frame struct {
	Layout  Layout
	Dates   []time.Time
	Codes   []string // per-row symbol codes, stack layout only
	Columns []Column
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int { return len(f.Dates) }

// Symbols returns the distinct symbols present, in first-seen order.
func (f *Frame) Symbols() []string {
	var out []string
	seen := make(map[string]bool)
	if f.Layout == LayoutStack {
		for _, c := range f.Codes {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
		return out
	}
	for _, c := range f.Columns {
		if c.Key.Symbol != "" && !seen[c.Key.Symbol] {
			seen[c.Key.Symbol] = true
			out = append(out, c.Key.Symbol)
		}
	}
	return out
}

// Column returns the first column whose attribute matches name,
// compared case-insensitively.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if strings.EqualFold(string(f.Columns[i].Key.Attr), name) {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// ColumnFor returns the column for an exact (attribute, symbol) key.
func (f *Frame) ColumnFor(attr Attribute, symbol string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Key.Attr == attr && f.Columns[i].Key.Symbol == symbol {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// NewStackFrame concatenates per-symbol tables under single attribute columns
// with the owning symbol carried as a row code. Rows end up sorted by date
// descending; symbol order breaks date ties.
func NewStackFrame(attrs []Attribute, symbols []string, tables map[string][]Quote) *Frame {
	var dates []time.Time
	var codes []string
	values := make([][]float64, len(attrs))

	for _, sym := range symbols {
		for _, q := range tables[sym] {
			dates = append(dates, q.Date)
			codes = append(codes, q.Code)
			for i, attr := range attrs {
				values[i] = append(values[i], q.Value(attr))
			}
		}
	}

	perm := make([]int, len(dates))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return dates[perm[i]].After(dates[perm[j]])
	})

	f := &Frame{
		Layout: LayoutStack,
		Dates:  make([]time.Time, len(dates)),
		Codes:  make([]string, len(codes)),
	}
	for i, p := range perm {
		f.Dates[i] = dates[p]
		f.Codes[i] = codes[p]
	}
	for i, attr := range attrs {
		col := Column{Key: ColumnKey{Attr: attr}, Values: make([]float64, len(dates))}
		for j, p := range perm {
			col.Values[j] = values[i][p]
		}
		f.Columns = append(f.Columns, col)
	}
	return f
}

// NewLevelsFrame joins per-symbol tables over the union of their dates with
// an (attribute, symbol) column per pair, attribute-major.
func NewLevelsFrame(attrs []Attribute, symbols []string, tables map[string][]Quote) *Frame {
	f := joinFrame(LayoutLevels, symbols, tables)
	for _, attr := range attrs {
		for _, sym := range symbols {
			f.Columns = append(f.Columns, fillColumn(f.Dates, ColumnKey{Attr: attr, Symbol: sym}, tables[sym]))
		}
	}
	return f
}

// NewPrefixFrame joins per-symbol tables like NewLevelsFrame but orders
// columns symbol-major, matching the flattened "SYMBOL_attribute" naming.
func NewPrefixFrame(attrs []Attribute, symbols []string, tables map[string][]Quote) *Frame {
	f := joinFrame(LayoutPrefix, symbols, tables)
	for _, sym := range symbols {
		for _, attr := range attrs {
			f.Columns = append(f.Columns, fillColumn(f.Dates, ColumnKey{Attr: attr, Symbol: sym}, tables[sym]))
		}
	}
	return f
}

func joinFrame(layout Layout, symbols []string, tables map[string][]Quote) *Frame {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, sym := range symbols {
		for _, q := range tables[sym] {
			if !seen[q.Date] {
				seen[q.Date] = true
				dates = append(dates, q.Date)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return &Frame{Layout: layout, Dates: dates}
}

func fillColumn(dates []time.Time, key ColumnKey, quotes []Quote) Column {
	byDate := make(map[time.Time]Quote, len(quotes))
	for _, q := range quotes {
		byDate[q.Date] = q
	}
	col := Column{Key: key, Values: make([]float64, len(dates))}
	for i, d := range dates {
		if q, ok := byDate[d]; ok {
			col.Values[i] = q.Value(key.Attr)
		} else {
			col.Values[i] = nan
		}
	}
	return col
}

// WriteCSV dumps the frame deterministically. Levels layout emits two header
// rows (attributes, then symbols); NaN cells are left empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	switch f.Layout {
	case LayoutLevels:
		attrRow := make([]string, 0, len(f.Columns)+1)
		symRow := make([]string, 0, len(f.Columns)+1)
		attrRow = append(attrRow, "")
		symRow = append(symRow, "date")
		for _, c := range f.Columns {
			attrRow = append(attrRow, string(c.Key.Attr))
			symRow = append(symRow, c.Key.Symbol)
		}
		if err := cw.Write(attrRow); err != nil {
			return err
		}
		if err := cw.Write(symRow); err != nil {
			return err
		}
	case LayoutStack:
		header := []string{"date", "code"}
		for _, c := range f.Columns {
			header = append(header, c.Key.Name())
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	default:
		header := []string{"date"}
		for _, c := range f.Columns {
			header = append(header, c.Key.Name())
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	row := make([]string, 0, len(f.Columns)+2)
	for i := range f.Dates {
		row = row[:0]
		row = append(row, f.Dates[i].Format(DateLayoutISO))
		if f.Layout == LayoutStack {
			row = append(row, f.Codes[i])
		}
		for _, c := range f.Columns {
			row = append(row, formatCell(c.Values[i]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
