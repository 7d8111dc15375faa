package models

import (
	"maps"
	"slices"
)

// Wire column names used by the enrichment service.
const (
	KeyColumn    = "unique_key"
	StrideColumn = "stride"
)

// PayloadRow is one coordinate sent to the enrichment service.
type PayloadRow struct {
	Longitude float64  `json:"longitude"`
	Latitude  float64  `json:"latitude"`
	Bearing   *float64 `json:"bearing,omitempty"`
	Stride    *float64 `json:"stride,omitempty"`
	UniqueKey string   `json:"unique_key"`
}

// ResponseRow is one enrichment result keyed by join key.
// A nil value means the column is absent or null for this row.
type ResponseRow struct {
	Key    string
	Values map[string]*float64
}

// ResponseTable is a flat table of enrichment results.
// Columns lists every value column seen, in first-seen order; the join key is not a column.
type ResponseTable struct {
	Columns []string
	Rows    []ResponseRow
}

// AddColumn registers a column name if it is not known yet.
func (rt *ResponseTable) AddColumn(name string) {
	if !slices.Contains(rt.Columns, name) {
		rt.Columns = append(rt.Columns, name)
	}
}

// HasColumn reports whether any row may carry the column.
func (rt *ResponseTable) HasColumn(name string) bool {
	return slices.Contains(rt.Columns, name)
}

// Append adds a row and registers its columns. Columns new to the table are
// registered in lexical order.
func (rt *ResponseTable) Append(row ResponseRow) {
	for _, name := range slices.Sorted(maps.Keys(row.Values)) {
		rt.AddColumn(name)
	}
	rt.Rows = append(rt.Rows, row)
}

// Value returns the value of a column for the row, nil when absent.
func (r ResponseRow) Value(name string) *float64 {
	if r.Values == nil {
		return nil
	}

	return r.Values[name]
}

// ConcatResponses unions the rows of several tables.
// Column sets may differ between tables; rows missing a column read it as absent.
func ConcatResponses(tables ...*ResponseTable) *ResponseTable {
	out := &ResponseTable{}
	for _, table := range tables {
		if table == nil {
			continue
		}
		for _, col := range table.Columns {
			out.AddColumn(col)
		}
		out.Rows = append(out.Rows, table.Rows...)
	}

	return out
}
