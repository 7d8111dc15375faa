package enrichment

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

var (
	// ErrRowCountMismatch is returned when the joined result does not have one row per table row.
	ErrRowCountMismatch = errors.New("joined result row count differs from table row count")
	// ErrKeyMismatch is returned when the joined result is not keyed exactly like the table.
	ErrKeyMismatch = errors.New("joined result keys differ from table keys")
)

// joinedRow is one table row paired with its result values, nil when unmatched.
type joinedRow struct {
	key    string
	values map[string]*float64
}

// Merge joins response onto the table through keys and writes the feature
// columns the table does not have yet. keys[i] must be the key of row i.
//
// The table is only touched once the join passed its integrity checks.
// It returns the columns that were added.
func Merge(table *models.Table, keys []string, response *models.ResponseTable) ([]models.Column, error) {
	if len(keys) != table.Len() {
		return nil, fmt.Errorf("%w: %d keys for %d rows", ErrRowCountMismatch, len(keys), table.Len())
	}
	if response == nil {
		response = &models.ResponseTable{}
	}

	joined := leftJoin(keys, response)
	slices.SortStableFunc(joined, func(a, b joinedRow) int {
		return strings.Compare(a.key, b.key)
	})

	if len(joined) != len(keys) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrRowCountMismatch, len(keys), len(joined))
	}
	for i := range joined {
		if joined[i].key != keys[i] {
			return nil, fmt.Errorf("%w: row %d expected %s, got %s", ErrKeyMismatch, i, keys[i], joined[i].key)
		}
	}

	added := newColumns(table, response)
	for i := range table.Points {
		for _, col := range added {
			var value *float64
			if v := joined[i].values[string(col)]; v != nil {
				value = models.Float(*v)
			}
			if err := table.Points[i].SetFeature(col, value); err != nil {
				return nil, err
			}
		}
	}
	for _, col := range added {
		table.AddColumn(col)
	}

	return added, nil
}

// leftJoin keeps every key, in key order, once per matching result row or once
// with no values when nothing matched.
func leftJoin(keys []string, response *models.ResponseTable) []joinedRow {
	index := make(map[string][]int, len(response.Rows))
	for i, row := range response.Rows {
		index[row.Key] = append(index[row.Key], i)
	}

	joined := make([]joinedRow, 0, len(keys))
	for _, key := range keys {
		matches := index[key]
		if len(matches) == 0 {
			joined = append(joined, joinedRow{key: key})
			continue
		}
		for _, i := range matches {
			joined = append(joined, joinedRow{key: key, values: response.Rows[i].Values})
		}
	}

	return joined
}

// newColumns lists the response columns missing from the table that the table can hold.
func newColumns(table *models.Table, response *models.ResponseTable) []models.Column {
	var added []models.Column
	for _, name := range response.Columns {
		if name == models.KeyColumn || name == models.StrideColumn {
			continue
		}
		col := models.Column(name)
		if table.Has(col) || !models.IsFeatureColumn(col) {
			continue
		}
		added = append(added, col)
	}

	return added
}
