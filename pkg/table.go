package pkg

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are the cell values read as missing, besides the empty string.
var missingTokens = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

func isMissing(cell string) bool {
	return cell == "" || missingTokens[cell]
}

// Table is an ordered, in-memory table of string cells. Empty cells and the usual NA tokens
// are missing values.
type Table struct {
	Columns []string
	Rows    [][]string
}

func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) Column(name string) (int, error) {
	for i, col := range t.Columns {
		if col == name {
			return i, nil
		}
	}
	return -1, &SchemaError{Column: name, Columns: t.Columns}
}

func (t *Table) HasColumn(name string) bool {
	_, err := t.Column(name)
	return err == nil
}

func (t *Table) Append(row []string) {
	cells := make([]string, len(t.Columns))
	copy(cells, row)
	t.Rows = append(t.Rows, cells)
}

func (t *Table) Value(row int, column string) (string, error) {
	idx, err := t.Column(column)
	if err != nil {
		return "", err
	}
	return t.Rows[row][idx], nil
}

// Float parses the cell as a number. The boolean is false for a missing or non-numeric cell.
func (t *Table) Float(row int, column string) (float64, bool) {
	raw, err := t.Value(row, column)
	if err != nil {
		return 0, false
	}
	return parseFloat(raw)
}

func (t *Table) columnIndexes(columns []string) ([]int, error) {
	indexes := make([]int, 0, len(columns))
	for _, col := range columns {
		idx, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// Select returns a copy holding only the given columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	indexes, err := t.columnIndexes(columns)
	if err != nil {
		return nil, err
	}
	out := NewTable(columns)
	for _, row := range t.Rows {
		cells := make([]string, len(indexes))
		for i, idx := range indexes {
			cells[i] = row[idx]
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// Drop removes the given columns. Every column must exist.
func (t *Table) Drop(columns ...string) (*Table, error) {
	if _, err := t.columnIndexes(columns); err != nil {
		return nil, err
	}
	var keep []string
	for _, col := range t.Columns {
		if !IsStringInlist(columns, col) {
			keep = append(keep, col)
		}
	}
	return t.Select(keep...)
}

// Rename renames columns in place. Names that are not present are ignored.
func (t *Table) Rename(names map[string]string) {
	for i, col := range t.Columns {
		if renamed, ok := names[col]; ok {
			t.Columns[i] = renamed
		}
	}
}

// AddColumn appends a computed column.
func (t *Table) AddColumn(name string, compute func(row int) string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], compute(i))
	}
}

// ForwardFill replaces missing values in columns with the last non-missing value seen for
// the same group, scanning rows in their existing order.
func (t *Table) ForwardFill(groupColumn string, columns ...string) error {
	groupIdx, err := t.Column(groupColumn)
	if err != nil {
		return err
	}
	indexes, err := t.columnIndexes(columns)
	if err != nil {
		return err
	}
	last := make(map[string][]string)
	for _, row := range t.Rows {
		group := row[groupIdx]
		carried, ok := last[group]
		if !ok {
			carried = make([]string, len(indexes))
			last[group] = carried
		}
		for i, idx := range indexes {
			if isMissing(row[idx]) {
				row[idx] = carried[i]
			} else {
				carried[i] = row[idx]
			}
		}
	}
	return nil
}

// GroupMax returns one row per group holding the maximum of valueColumn. Values compare as
// strings, which orders ISO-8601 dates chronologically. Groups appear in first-seen order.
func (t *Table) GroupMax(groupColumn, valueColumn string) (*Table, error) {
	indexes, err := t.columnIndexes([]string{groupColumn, valueColumn})
	if err != nil {
		return nil, err
	}
	var order []string
	maxima := make(map[string]string)
	for _, row := range t.Rows {
		group, value := row[indexes[0]], row[indexes[1]]
		current, ok := maxima[group]
		if !ok {
			order = append(order, group)
			maxima[group] = value
			continue
		}
		if value > current {
			maxima[group] = value
		}
	}
	out := NewTable([]string{groupColumn, valueColumn})
	for _, group := range order {
		out.Rows = append(out.Rows, []string{group, maxima[group]})
	}
	return out, nil
}

// InnerJoin joins left and right on leftKey == rightKey. Rows without a match on either side
// are dropped and duplicate keys produce one output row per pair. Non-key columns present on
// both sides are suffixed with _x (left) and _y (right).
func InnerJoin(left, right *Table, leftKey, rightKey string) (*Table, error) {
	return innerJoin(left, right, []string{leftKey}, []string{rightKey})
}

// InnerJoinOn joins left and right on identically named key columns, which appear once in
// the result.
func InnerJoinOn(left, right *Table, keys ...string) (*Table, error) {
	return innerJoin(left, right, keys, keys)
}

func innerJoin(left, right *Table, leftKeys, rightKeys []string) (*Table, error) {
	leftIdx, err := left.columnIndexes(leftKeys)
	if err != nil {
		return nil, err
	}
	rightIdx, err := right.columnIndexes(rightKeys)
	if err != nil {
		return nil, err
	}
	sharedKeys := strings.Join(leftKeys, "\x00") == strings.Join(rightKeys, "\x00")

	var rightKeep []int
	for i, col := range right.Columns {
		if sharedKeys && IsStringInlist(rightKeys, col) {
			continue
		}
		rightKeep = append(rightKeep, i)
	}

	columns := make([]string, 0, len(left.Columns)+len(rightKeep))
	for _, col := range left.Columns {
		if overlaps(col, right, rightKeys, sharedKeys) {
			col += "_x"
		}
		columns = append(columns, col)
	}
	for _, i := range rightKeep {
		col := right.Columns[i]
		if overlaps(col, left, leftKeys, sharedKeys) {
			col += "_y"
		}
		columns = append(columns, col)
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		k, ok := joinKey(row, rightIdx)
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}

	out := NewTable(columns)
	for _, lrow := range left.Rows {
		k, ok := joinKey(lrow, leftIdx)
		if !ok {
			continue
		}
		for _, ri := range index[k] {
			rrow := right.Rows[ri]
			cells := make([]string, 0, len(columns))
			cells = append(cells, lrow...)
			for _, i := range rightKeep {
				cells = append(cells, rrow[i])
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out, nil
}

func overlaps(col string, other *Table, otherKeys []string, sharedKeys bool) bool {
	if sharedKeys && IsStringInlist(otherKeys, col) {
		return false
	}
	return other.HasColumn(col)
}

// joinKey reports false when any key cell is missing; such rows never match.
func joinKey(row []string, indexes []int) (string, bool) {
	parts := make([]string, len(indexes))
	for i, idx := range indexes {
		if isMissing(row[idx]) {
			return "", false
		}
		parts[i] = row[idx]
	}
	return strings.Join(parts, "\x00"), true
}

// parseFloat rejects missing cells and non-finite numbers.
func parseFloat(raw string) (float64, bool) {
	if isMissing(raw) {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
