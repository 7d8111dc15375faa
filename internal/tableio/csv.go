package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

// ErrInvalidCell is returned when a cell cannot be parsed for its column.
var ErrInvalidCell = errors.New("invalid cell")

// timeLayouts are tried in order when parsing dateTime cells.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Read parses a CSV trace with a header row.
// Known columns are typed, any other column is carried through as text.
// Empty cells of numeric columns are read as missing values. The layout of the
// first non-empty dateTime cell is kept in Table.TimeLayout.
func Read(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &models.Table{}
	known := make(map[int]models.Column)
	var extra []int
	for idx, name := range header {
		name = strings.TrimSpace(name)
		col := models.Column(name)
		if isKnownColumn(col) && !table.Has(col) {
			table.Columns = append(table.Columns, col)
			known[idx] = col
			continue
		}
		table.Extra = append(table.Extra, name)
		extra = append(extra, idx)
	}

	for line := 2; ; line++ {
		record, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			break
		}
		if errRead != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, errRead)
		}

		var point models.TrackPoint
		for idx, col := range known {
			layout, errCell := setCell(&point, col, record[idx])
			if errCell != nil {
				return nil, fmt.Errorf("line %d: %w", line, errCell)
			}
			if table.TimeLayout == "" {
				table.TimeLayout = layout
			}
		}
		for _, idx := range extra {
			point.Extra = append(point.Extra, record[idx])
		}
		table.Points = append(table.Points, point)
	}

	return table, nil
}

// Write renders the table as CSV: schema columns first, then pass-through columns.
// Missing values are written as empty cells. dateTime uses Table.TimeLayout, or
// RFC 3339 with nanoseconds when the table has none, so every row of a file
// read with mixed layouts is written with the first one.
func Write(w io.Writer, table *models.Table) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(table.Columns)+len(table.Extra))
	for _, col := range table.Columns {
		header = append(header, string(col))
	}
	header = append(header, table.Extra...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	layout := table.TimeLayout
	if layout == "" {
		layout = time.RFC3339Nano
	}
	for idx := range table.Points {
		point := &table.Points[idx]
		record := make([]string, 0, len(header))
		for _, col := range table.Columns {
			record = append(record, cell(point, col, layout))
		}
		for i := range table.Extra {
			value := ""
			if i < len(point.Extra) {
				value = point.Extra[i]
			}
			record = append(record, value)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", idx, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func isKnownColumn(col models.Column) bool {
	return slices.Contains(models.RequiredColumns, col) || models.IsFeatureColumn(col)
}

// setCell stores value in the point and returns the layout of a parsed dateTime.
func setCell(point *models.TrackPoint, col models.Column, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch col {
	case models.ColumnAssetID:
		point.AssetID = value
		return "", nil
	case models.ColumnDateTime:
		ts, layout, err := parseTime(value)
		if err != nil {
			return "", err
		}
		point.DateTime = ts
		return layout, nil
	}

	number, err := parseNumber(col, value)
	if err != nil {
		return "", err
	}
	switch col {
	case models.ColumnLatitude:
		point.Latitude = number
	case models.ColumnLongitude:
		point.Longitude = number
	default:
		return "", point.SetFeature(col, number)
	}

	return "", nil
}

func parseTime(value string) (time.Time, string, error) {
	if value == "" {
		return time.Time{}, "", nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("%w: dateTime %q", ErrInvalidCell, value)
}

func parseNumber(col models.Column, value string) (*float64, error) {
	if value == "" || strings.EqualFold(value, "nan") || strings.EqualFold(value, "null") {
		return nil, nil //nolint:nilnil // empty cell is a missing value
	}
	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidCell, col, value)
	}

	return &number, nil
}

func cell(point *models.TrackPoint, col models.Column, layout string) string {
	var value *float64
	switch col {
	case models.ColumnAssetID:
		return point.AssetID
	case models.ColumnDateTime:
		if point.DateTime.IsZero() {
			return ""
		}
		return point.DateTime.Format(layout)
	case models.ColumnLatitude:
		value = point.Latitude
	case models.ColumnLongitude:
		value = point.Longitude
	default:
		value, _ = point.Feature(col)
	}
	if value == nil || math.IsNaN(*value) {
		return ""
	}

	return strconv.FormatFloat(*value, 'f', -1, 64)
}
