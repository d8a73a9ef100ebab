package features

import (
	"strconv"
	"strings"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

type column struct {
	name string
	nums []float64
	strs []string // non-nil until Coerce converts the column
}

// Frame is an ordered set of equally sized feature columns, one row per
// (store, item) pair.
type Frame struct {
	n     int
	cols  []column
	index map[string]int
}

// NewFrame creates an empty frame for n rows.
func NewFrame(n int) *Frame {
	return &Frame{n: n, index: map[string]int{}}
}

// Len is the row count.
func (f *Frame) Len() int {
	return f.n
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// AddNumeric appends a numeric column. Replaces any column of the same name.
func (f *Frame) AddNumeric(name string, values []float64) {
	if ix, ok := f.index[name]; ok {
		f.cols[ix] = column{name: name, nums: values}
		return
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, column{name: name, nums: values})
}

// AddString appends a string column that Coerce will turn numeric later.
func (f *Frame) AddString(name string, values []string) {
	if ix, ok := f.index[name]; ok {
		f.cols[ix] = column{name: name, strs: values}
		return
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, column{name: name, strs: values})
}

// Column returns a numeric column by name.
func (f *Frame) Column(name string) ([]float64, bool) {
	ix, ok := f.index[name]
	if !ok || f.cols[ix].nums == nil {
		return nil, false
	}
	return f.cols[ix].nums, true
}

// Coerce converts every string column to numeric: values all parse as
// numbers → parsed (blank as 0); otherwise the distinct values are encoded
// to small integers in order of first appearance.
func (f *Frame) Coerce() {
	for i, c := range f.cols {
		if c.strs == nil {
			continue
		}
		f.cols[i] = column{name: c.name, nums: coerceStrings(c.strs)}
	}
}

func coerceStrings(values []string) []float64 {
	parsed := make([]float64, len(values))
	allNumeric := true
	for i, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			parsed[i] = 0
			continue
		}
		num, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			allNumeric = false
			break
		}
		parsed[i] = num
	}
	if allNumeric {
		return parsed
	}

	codes := map[string]float64{}
	encoded := make([]float64, len(values))
	for i, v := range values {
		code, ok := codes[v]
		if !ok {
			code = float64(len(codes))
			codes[v] = code
		}
		encoded[i] = code
	}
	return encoded
}

// Matrix materializes the frame row-major for model input. All string
// columns must have been coerced first.
func (f *Frame) Matrix() ([][]float64, error) {
	for _, c := range f.cols {
		if c.nums == nil {
			return nil, errors.New(errors.CodeInternal, "column "+c.name+" not coerced to numeric")
		}
	}
	rows := make([][]float64, f.n)
	for r := 0; r < f.n; r++ {
		row := make([]float64, len(f.cols))
		for ci, c := range f.cols {
			row[ci] = c.nums[r]
		}
		rows[r] = row
	}
	return rows, nil
}

// Select rebuilds the frame to exactly the expected column names in order:
// missing names become zero columns, generated columns not in the expected
// set are dropped.
func (f *Frame) Select(expected []string) {
	cols := make([]column, 0, len(expected))
	index := make(map[string]int, len(expected))
	for _, name := range expected {
		if ix, ok := f.index[name]; ok {
			cols = append(cols, f.cols[ix])
		} else {
			cols = append(cols, column{name: name, nums: make([]float64, f.n)})
		}
		index[name] = len(cols) - 1
	}
	f.cols = cols
	f.index = index
}

// Rename relabels the columns positionally. Extra names beyond the column
// count are ignored.
func (f *Frame) Rename(names []string) {
	index := make(map[string]int, len(f.cols))
	for i := range f.cols {
		if i < len(names) {
			f.cols[i].name = names[i]
		}
		index[f.cols[i].name] = i
	}
	f.index = index
}

// Truncate keeps only the first n columns.
func (f *Frame) Truncate(n int) {
	if n >= len(f.cols) {
		return
	}
	dropped := f.cols[n:]
	f.cols = f.cols[:n]
	for _, c := range dropped {
		delete(f.index, c.name)
	}
}

// PadZeros appends zero columns until the frame has n columns.
func (f *Frame) PadZeros(n int) {
	for len(f.cols) < n {
		name := "pad_" + strconv.Itoa(len(f.cols))
		f.AddNumeric(name, make([]float64, f.n))
	}
}

// Width is the current column count.
func (f *Frame) Width() int {
	return len(f.cols)
}
