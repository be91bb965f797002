package model

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func fixQuote(code string, date time.Time, base float64) Quote {
	q := NewQuote(code, date)
	q.Open = base - 1
	q.High = base + 1
	q.Low = base - 2
	q.Close = base
	q.Adjust = base
	q.VolumeMatch = 1000
	q.ValueMatch = base * 1000
	return q
}

func TestStackFrame_RowCountInvariant(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10), fixQuote("AAA", day(2), 11), fixQuote("AAA", day(3), 12)},
		"BBB": {fixQuote("BBB", day(2), 20), fixQuote("BBB", day(3), 21)},
	}
	f := NewStackFrame(MinimalAttributes(), []string{"AAA", "BBB"}, tables)

	if f.Rows() != 5 {
		t.Fatalf("rows = %d, want sum of per-symbol counts 5", f.Rows())
	}
	if len(f.Codes) != 5 {
		t.Fatalf("codes length = %d, want 5", len(f.Codes))
	}
	if len(f.Columns) != len(MinimalAttributes()) {
		t.Errorf("columns = %d, want %d", len(f.Columns), len(MinimalAttributes()))
	}
	for i := 1; i < f.Rows(); i++ {
		if f.Dates[i].After(f.Dates[i-1]) {
			t.Errorf("dates not descending at row %d", i)
		}
	}

	counts := map[string]int{}
	for _, c := range f.Codes {
		counts[c]++
	}
	if counts["AAA"] != 3 || counts["BBB"] != 2 {
		t.Errorf("per-symbol row counts = %v, want AAA:3 BBB:2", counts)
	}
}

func TestStackFrame_TieBreakKeepsSymbolOrder(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(2), 10)},
		"BBB": {fixQuote("BBB", day(2), 20)},
	}
	f := NewStackFrame(MinimalAttributes(), []string{"AAA", "BBB"}, tables)
	if f.Codes[0] != "AAA" || f.Codes[1] != "BBB" {
		t.Errorf("equal dates reordered symbols: %v", f.Codes)
	}
}

func TestPrefixFrame_ColumnNamingAndOrder(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10)},
		"BBB": {fixQuote("BBB", day(1), 20)},
	}
	f := NewPrefixFrame(MinimalAttributes(), []string{"AAA", "BBB"}, tables)

	want := []string{
		"AAA_open", "AAA_high", "AAA_low", "AAA_close",
		"AAA_adjust", "AAA_volume_match", "AAA_value_match",
		"BBB_open", "BBB_high", "BBB_low", "BBB_close",
		"BBB_adjust", "BBB_volume_match", "BBB_value_match",
	}
	if len(f.Columns) != len(want) {
		t.Fatalf("columns = %d, want %d", len(f.Columns), len(want))
	}
	for i, c := range f.Columns {
		if c.Key.Name() != want[i] {
			t.Errorf("column %d = %q, want %q", i, c.Key.Name(), want[i])
		}
	}
}

func TestLevelsFrame_JoinWithNaNFill(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10), fixQuote("AAA", day(2), 11)},
		"BBB": {fixQuote("BBB", day(2), 20), fixQuote("BBB", day(3), 21)},
	}
	attrs := []Attribute{AttrClose}
	f := NewLevelsFrame(attrs, []string{"AAA", "BBB"}, tables)

	if f.Rows() != 3 {
		t.Fatalf("rows = %d, want union of dates 3", f.Rows())
	}
	if !f.Dates[0].Equal(day(3)) || !f.Dates[1].Equal(day(2)) || !f.Dates[2].Equal(day(1)) {
		t.Fatalf("dates not descending union: %v", f.Dates)
	}
	if len(f.Columns) != len(attrs)*2 {
		t.Fatalf("columns = %d, want attributes x symbols = %d", len(f.Columns), len(attrs)*2)
	}

	closeA, ok := f.ColumnFor(AttrClose, "AAA")
	if !ok {
		t.Fatal("missing (close, AAA) column")
	}
	closeB, ok := f.ColumnFor(AttrClose, "BBB")
	if !ok {
		t.Fatal("missing (close, BBB) column")
	}
	// Day 3 exists only for BBB, day 1 only for AAA.
	if !math.IsNaN(closeA.Values[0]) {
		t.Errorf("AAA close at %s = %v, want NaN", day(3).Format(DateLayoutISO), closeA.Values[0])
	}
	if closeB.Values[0] != 21 {
		t.Errorf("BBB close at %s = %v, want 21", day(3).Format(DateLayoutISO), closeB.Values[0])
	}
	if closeA.Values[2] != 10 {
		t.Errorf("AAA close at %s = %v, want 10", day(1).Format(DateLayoutISO), closeA.Values[2])
	}
	if !math.IsNaN(closeB.Values[2]) {
		t.Errorf("BBB close at %s = %v, want NaN", day(1).Format(DateLayoutISO), closeB.Values[2])
	}
}

func TestLevelsFrame_AttributeMajorOrder(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10)},
		"BBB": {fixQuote("BBB", day(1), 20)},
	}
	f := NewLevelsFrame([]Attribute{AttrOpen, AttrClose}, []string{"AAA", "BBB"}, tables)

	want := []ColumnKey{
		{AttrOpen, "AAA"}, {AttrOpen, "BBB"},
		{AttrClose, "AAA"}, {AttrClose, "BBB"},
	}
	for i, c := range f.Columns {
		if c.Key != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, c.Key, want[i])
		}
	}
}

func TestFrame_ColumnCaseInsensitive(t *testing.T) {
	tables := map[string][]Quote{"AAA": {fixQuote("AAA", day(1), 10)}}
	f := NewStackFrame(MinimalAttributes(), []string{"AAA"}, tables)

	for _, name := range []string{"close", "Close", "CLOSE"} {
		if _, ok := f.Column(name); !ok {
			t.Errorf("Column(%q) not found", name)
		}
	}
	if _, ok := f.Column("nope"); ok {
		t.Error("Column(nope) unexpectedly found")
	}
}

func TestWriteCSV_Stack(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10), fixQuote("AAA", day(2), 11)},
	}
	f := NewStackFrame([]Attribute{AttrClose}, []string{"AAA"}, tables)

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "date,code,close\n2024-01-02,AAA,11\n2024-01-01,AAA,10\n"
	if buf.String() != want {
		t.Errorf("csv output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteCSV_LevelsTwoHeaderRows(t *testing.T) {
	tables := map[string][]Quote{
		"AAA": {fixQuote("AAA", day(1), 10)},
		"BBB": {fixQuote("BBB", day(2), 20)},
	}
	f := NewLevelsFrame([]Attribute{AttrClose}, []string{"AAA", "BBB"}, tables)

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := ",close,close\ndate,AAA,BBB\n2024-01-02,,20\n2024-01-01,10,\n"
	if buf.String() != want {
		t.Errorf("csv output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    Layout
		wantErr bool
	}{
		{"levels", LayoutLevels, false},
		{"Prefix", LayoutPrefix, false},
		{" STACK ", LayoutStack, false},
		{"wide", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLayout(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLayout(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLayout(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLayout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	iso, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("iso: %v", err)
	}
	vn, err := ParseDate("15/01/2024")
	if err != nil {
		t.Fatalf("day-first: %v", err)
	}
	if !iso.Equal(vn) {
		t.Errorf("formats disagree: %v vs %v", iso, vn)
	}
	if _, err := ParseDate("Jan 15 2024"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(day(1), day(1)); got != 1 {
		t.Errorf("same day = %d, want 1", got)
	}
	if got := DaysBetween(day(1), day(10)); got != 10 {
		t.Errorf("1..10 = %d, want 10", got)
	}
	if got := DaysBetween(day(10), day(1)); got != 0 {
		t.Errorf("reversed = %d, want 0", got)
	}
}

func TestNewQuote_AllNaN(t *testing.T) {
	q := NewQuote("AAA", day(1))
	for _, attr := range []Attribute{AttrOpen, AttrClose, AttrAdjust, AttrVolumeMatch, AttrBasicPrice} {
		if !math.IsNaN(q.Value(attr)) {
			t.Errorf("fresh quote %s = %v, want NaN", attr, q.Value(attr))
		}
	}
	if !math.IsNaN(q.Value("bogus")) {
		t.Error("unknown attribute should yield NaN")
	}
}
