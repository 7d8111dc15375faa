package elevation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

// geoPointNames maps the last segment of a flattened geo-point field to its canonical column.
var geoPointNames = map[string]string{
	"lat": string(models.ColumnLatitude),
	"lon": string(models.ColumnLongitude),
	"lng": string(models.ColumnLongitude),
}

// ParseResponse converts a groundhog response body into a flat table.
//
// The body may be an array of records, a single record or a column oriented
// object of equally long arrays. Nested objects are flattened into
// "parent.child" columns, and geo-point members (lat, lon) are renamed to
// latitude and longitude. Every row must carry a unique_key.
func ParseResponse(body []byte) (*models.ResponseTable, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	records, err := toRecords(doc)
	if err != nil {
		return nil, err
	}

	table := &models.ResponseTable{}
	for idx, record := range records {
		flat := make(map[string]any, len(record))
		flatten("", record, flat)

		row := models.ResponseRow{Values: make(map[string]*float64, len(flat))}
		for name, raw := range flat {
			name = canonicalName(name)
			if name == models.KeyColumn {
				row.Key = keyString(raw)
				continue
			}
			if value, ok := toFloat(raw); ok {
				row.Values[name] = value
			}
		}
		if row.Key == "" {
			return nil, fmt.Errorf("%w: row %d has no %s", ErrMalformedResponse, idx, models.KeyColumn)
		}
		table.Append(row)
	}

	return table, nil
}

func toRecords(doc any) ([]map[string]any, error) {
	switch value := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		records := make([]map[string]any, 0, len(value))
		for idx, item := range value {
			record, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedResponse, idx)
			}
			records = append(records, record)
		}
		return records, nil
	case map[string]any:
		if records, ok := columnsToRecords(value); ok {
			return records, nil
		}
		return []map[string]any{value}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected document type %T", ErrMalformedResponse, doc)
	}
}

// columnsToRecords transposes {"col": [v1, v2], ...}. It reports false when the
// object is not column oriented.
func columnsToRecords(doc map[string]any) ([]map[string]any, bool) {
	if len(doc) == 0 {
		return nil, false
	}

	size := -1
	for _, raw := range doc {
		column, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		if size >= 0 && len(column) != size {
			return nil, false
		}
		size = len(column)
	}

	records := make([]map[string]any, size)
	for i := range records {
		records[i] = make(map[string]any, len(doc))
	}
	for name, raw := range doc {
		for i, value := range raw.([]any) {
			records[i][name] = value
		}
	}

	return records, true
}

func flatten(prefix string, record map[string]any, out map[string]any) {
	for name, value := range record {
		if prefix != "" {
			name = prefix + "." + name
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(name, nested, out)
			continue
		}
		out[name] = value
	}
}

func canonicalName(name string) string {
	last := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		last = name[idx+1:]
	}
	if canonical, ok := geoPointNames[last]; ok {
		return canonical
	}

	return name
}

func keyString(raw any) string {
	switch value := raw.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return ""
	}
}

func toFloat(raw any) (*float64, bool) {
	switch value := raw.(type) {
	case nil:
		return nil, true
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return nil, false
		}
		return &parsed, true
	case float64:
		return &value, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, false
		}
		return &parsed, true
	default:
		return nil, false
	}
}
