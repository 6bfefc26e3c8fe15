// Package tabular reads header-keyed CSV exports into records addressed by
// column name.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

var ErrNoHeader = errors.New("file has no header row")

type Table struct {
	Columns []string
	Records []Record

	index map[string]int
}

// Record is one data row. Line is the 1-based line number in the source file,
// counting the header as line 1.
type Record struct {
	Line  int
	cells map[string]string
}

func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		t.Columns[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		rec := Record{Line: line, cells: make(map[string]string, len(t.Columns))}
		for name, i := range t.index {
			if i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec.cells[name] = v
			}
		}
		t.Records = append(t.Records, rec)
	}

	return t, nil
}

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// MissingColumns returns the required columns absent from the header, in the
// order they were asked for.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// DateColumns returns the header columns that name a calendar week, keyed by
// column name.
func (t *Table) DateColumns() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, c := range t.Columns {
		if d, ok := ParseHeaderDate(c); ok {
			out[c] = d
		}
	}
	return out
}

// Get returns the trimmed cell value. Blank cells and unknown columns are
// reported as absent.
func (r Record) Get(col string) (string, bool) {
	v, ok := r.cells[col]
	return v, ok
}

// Value returns the cell value or "".
func (r Record) Value(col string) string {
	return r.cells[col]
}

// First returns the value of the first present column among cols.
func (r Record) First(cols ...string) (string, bool) {
	for _, c := range cols {
		if v, ok := r.cells[c]; ok {
			return v, true
		}
	}
	return "", false
}

var headerDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseHeaderDate reports whether col is a date label and returns it as UTC
// midnight.
func ParseHeaderDate(col string) (time.Time, bool) {
	col = strings.TrimSpace(col)
	if col == "" {
		return time.Time{}, false
	}
	for _, layout := range headerDateLayouts {
		if d, err := time.Parse(layout, col); err == nil {
			return DateOnlyUTC(d), true
		}
	}
	return time.Time{}, false
}

func DateOnlyUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
