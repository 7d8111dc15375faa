package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Column names a column of a GPS trace table.
type Column string

// Known trace columns.
const (
	ColumnAssetID   Column = "assetId"
	ColumnDateTime  Column = "dateTime"
	ColumnLatitude  Column = "latitude"
	ColumnLongitude Column = "longitude"
	ColumnBearing   Column = "bearing"
	ColumnElevation Column = "elevation"
	ColumnSlope     Column = "slope"
)

// RequiredColumns must be present on every table handed to the enrichment pipeline.
var RequiredColumns = []Column{ColumnAssetID, ColumnDateTime, ColumnLatitude, ColumnLongitude}

// FeatureColumns are the columns the enrichment pipeline may add to a table.
var FeatureColumns = []Column{ColumnBearing, ColumnSlope, ColumnElevation}

var (
	// ErrMissingColumns is returned when a table lacks one of the required columns.
	ErrMissingColumns = errors.New("table is missing required columns")
	// ErrUnknownColumn is returned when a value is written to a column that cannot hold features.
	ErrUnknownColumn = errors.New("column cannot hold feature values")
)

// TrackPoint represents one GPS observation of an asset.
type TrackPoint struct {
	ID        int64     // ID is the storage identifier, zero when the point is not persisted.
	AssetID   string    // AssetID groups observations of one physical entity.
	DateTime  time.Time // DateTime is the observation timestamp.
	Latitude  *float64  // Latitude in degrees north, nil when unknown.
	Longitude *float64  // Longitude in degrees east, nil when unknown.
	Bearing   *float64  // Bearing is the direction of travel in degrees, 0 is north.
	Elevation *float64  // Elevation in meters.
	Slope     *float64  // Slope in meters per meter along the direction of travel.
	Extra     []string  // Extra holds pass-through cells aligned with Table.Extra.
}

// Coordinates returns the point position and whether it can be queried.
func (p *TrackPoint) Coordinates() (Coordinates, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinates{}, false
	}
	coords := Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}

	return coords, coords.Valid()
}

// Feature returns the value stored under a feature column.
func (p *TrackPoint) Feature(col Column) (*float64, error) {
	switch col {
	case ColumnBearing:
		return p.Bearing, nil
	case ColumnElevation:
		return p.Elevation, nil
	case ColumnSlope:
		return p.Slope, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
}

// SetFeature stores a value under a feature column.
func (p *TrackPoint) SetFeature(col Column, value *float64) error {
	switch col {
	case ColumnBearing:
		p.Bearing = value
	case ColumnElevation:
		p.Elevation = value
	case ColumnSlope:
		p.Slope = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}

	return nil
}

// Table is a column-aware collection of track points.
// Columns describes the schema: a feature field of a point is only meaningful
// when its column is listed.
type Table struct {
	Columns    []Column     // Columns lists the columns present in the table.
	Extra      []string     // Extra lists pass-through column names.
	Points     []TrackPoint // Points holds the rows in caller order.
	TimeLayout string       // TimeLayout renders dateTime when written back, empty means RFC 3339.
}

// NewTable creates a table with the required columns and the given optional ones.
func NewTable(points []TrackPoint, optional ...Column) *Table {
	cols := slices.Clone(RequiredColumns)
	for _, col := range optional {
		if !slices.Contains(cols, col) {
			cols = append(cols, col)
		}
	}

	return &Table{Columns: cols, Points: points}
}

// Has reports whether the column is part of the table schema.
func (t *Table) Has(col Column) bool {
	return slices.Contains(t.Columns, col)
}

// AddColumn adds a column to the schema if it is not there yet.
func (t *Table) AddColumn(col Column) {
	if !t.Has(col) {
		t.Columns = append(t.Columns, col)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Points)
}

// Validate checks that every required column is present.
func (t *Table) Validate() error {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.Has(col) {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// IsFeatureColumn reports whether the pipeline is allowed to write the column.
func IsFeatureColumn(col Column) bool {
	return slices.Contains(FeatureColumns, col)
}

// Float returns a pointer to a copy of v.
func Float(v float64) *float64 {
	return &v
}

// SplitByAsset returns one table per asset, in order of first appearance.
// Each table shares the schema of t and holds copies of the asset's points in their original order.
func (t *Table) SplitByAsset() []*Table {
	var tables []*Table
	byAsset := make(map[string]*Table)
	for _, point := range t.Points {
		sub, ok := byAsset[point.AssetID]
		if !ok {
			sub = &Table{Columns: slices.Clone(t.Columns), Extra: slices.Clone(t.Extra), TimeLayout: t.TimeLayout}
			byAsset[point.AssetID] = sub
			tables = append(tables, sub)
		}
		sub.Points = append(sub.Points, point)
	}

	return tables
}
