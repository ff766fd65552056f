// Package starfile reads and writes sectioned record files: a sequence of named
// data blocks, each either a key/value list or a loop_ table with a fixed set of
// columns. Values holding blanks or a leading reserved character are quoted
// with whichever quote character they do not contain.
//
//	data_schedule_general
//
//	_scheduleName                  demo
//	_scheduleCurrentNodeName       undefined
//
//	data_schedule_floats
//
//	loop_
//	_scheduleVariableName #1
//	_scheduleVariableValue #2
//	_scheduleVariableResetValue #3
//	maxiter 10 10
//	"_tmp" 0 0
package starfile

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMissingLabel indicates a block does not carry the requested column.
	ErrMissingLabel = errors.New("missing label")

	// ErrColumnMismatch indicates a row with a different number of values than columns.
	ErrColumnMismatch = errors.New("row does not match columns")

	// ErrSyntax indicates malformed input.
	ErrSyntax = errors.New("syntax error")

	// ErrBadValue indicates a value that cannot be converted to the requested type.
	ErrBadValue = errors.New("bad value")
)

// Block is one named section of a record file.
type Block struct {
	Name    string
	IsList  bool
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewList creates a key/value block holding a single row.
func NewList(name string) *Block {
	return &Block{Name: name, IsList: true, Rows: [][]string{{}}, index: map[string]int{}}
}

// NewTable creates a loop_ block with the given columns.
func NewTable(name string, columns ...string) *Block {
	b := &Block{Name: name, index: map[string]int{}}
	for _, c := range columns {
		b.addColumn(c)
	}

	return b
}

func (b *Block) addColumn(label string) {
	if b.index == nil {
		b.index = map[string]int{}
	}

	b.index[label] = len(b.Columns)
	b.Columns = append(b.Columns, label)
}

// Set assigns a value in a list block, appending the label if needed.
func (b *Block) Set(label, value string) {
	if i, ok := b.index[label]; ok {
		b.Rows[0][i] = value

		return
	}

	b.addColumn(label)
	b.Rows[0] = append(b.Rows[0], value)
}

// AddRow appends a row to a table block.
func (b *Block) AddRow(values ...string) error {
	if len(values) != len(b.Columns) {
		return fmt.Errorf("block %s: got %d values for %d columns: %w", b.Name, len(values), len(b.Columns), ErrColumnMismatch)
	}

	b.Rows = append(b.Rows, values)

	return nil
}

// Len returns the number of rows.
func (b *Block) Len() int {
	return len(b.Rows)
}

// Has reports whether the block carries the column.
func (b *Block) Has(label string) bool {
	_, ok := b.index[label]

	return ok
}

// String returns the raw value at row for label.
func (b *Block) String(row int, label string) (string, error) {
	i, ok := b.index[label]
	if !ok {
		return "", fmt.Errorf("block %s: %s: %w", b.Name, label, ErrMissingLabel)
	}

	if row < 0 || row >= len(b.Rows) {
		return "", fmt.Errorf("block %s: row %d out of range", b.Name, row)
	}

	return b.Rows[row][i], nil
}

// Float parses the value at row for label.
func (b *Block) Float(row int, label string) (float64, error) {
	raw, err := b.String(row, label)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("block %s: %s=%q: %w", b.Name, label, raw, ErrBadValue)
	}

	return v, nil
}

// Int parses the value at row for label.
func (b *Block) Int(row int, label string) (int, error) {
	raw, err := b.String(row, label)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("block %s: %s=%q: %w", b.Name, label, raw, ErrBadValue)
	}

	return v, nil
}

// Bool parses the value at row for label. Both 1/0 and true/false are accepted.
func (b *Block) Bool(row int, label string) (bool, error) {
	raw, err := b.String(row, label)
	if err != nil {
		return false, err
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("block %s: %s=%q: %w", b.Name, label, raw, ErrBadValue)
	}

	return v, nil
}

// FormatFloat renders v with the shortest representation that reads back exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatBool renders v as 1 or 0.
func FormatBool(v bool) string {
	if v {
		return "1"
	}

	return "0"
}

// FormatInt renders v in base 10.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}
