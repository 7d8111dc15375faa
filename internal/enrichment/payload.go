package enrichment

import (
	"slices"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

// BatchPoint is one distinct coordinate of an asset, ready to be queried.
type BatchPoint struct {
	Key       string
	DateTime  time.Time
	Latitude  float64
	Longitude float64
	Bearing   *float64
}

// Batch holds the request for one asset. Points have unique coordinates and
// are ordered by time; aliases maps the key of every queried point to the keys
// of the rows that share its coordinates.
type Batch struct {
	AssetID    string
	Points     []BatchPoint
	aliases    map[string][]string
	hasBearing bool
	stride     float64
}

type coordKey struct {
	lat, lon float64
}

// BuildBatches groups the keyed table by asset, in order of first appearance.
//
// Rows without usable coordinates are left out. Rows repeating the exact
// coordinates of an earlier row of the same asset become aliases of it.
// A positive stride is sent along with every point.
func BuildBatches(table *models.Table, keys []string, stride float64) []*Batch {
	var batches []*Batch
	byAsset := make(map[string]*Batch)
	seen := make(map[string]map[coordKey]string)

	for idx := range table.Points {
		point := &table.Points[idx]
		batch, ok := byAsset[point.AssetID]
		if !ok {
			batch = &Batch{
				AssetID:    point.AssetID,
				aliases:    make(map[string][]string),
				hasBearing: table.Has(models.ColumnBearing),
				stride:     stride,
			}
			byAsset[point.AssetID] = batch
			seen[point.AssetID] = make(map[coordKey]string)
			batches = append(batches, batch)
		}

		coords, ok := point.Coordinates()
		if !ok {
			continue
		}

		key := keys[idx]
		ck := coordKey{lat: coords.Latitude, lon: coords.Longitude}
		if representative, dup := seen[point.AssetID][ck]; dup {
			batch.aliases[representative] = append(batch.aliases[representative], key)
			continue
		}
		seen[point.AssetID][ck] = key

		bp := BatchPoint{
			Key:       key,
			DateTime:  point.DateTime,
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		}
		if batch.hasBearing && point.Bearing != nil {
			bp.Bearing = models.Float(*point.Bearing)
		}
		batch.Points = append(batch.Points, bp)
	}

	for _, batch := range batches {
		slices.SortStableFunc(batch.Points, func(a, b BatchPoint) int {
			return a.DateTime.Compare(b.DateTime)
		})
	}

	return batches
}

// Payload returns the wire representation of the batch, without timestamps.
func (b *Batch) Payload() []models.PayloadRow {
	payload := make([]models.PayloadRow, 0, len(b.Points))
	for _, point := range b.Points {
		row := models.PayloadRow{
			Longitude: point.Longitude,
			Latitude:  point.Latitude,
			Bearing:   point.Bearing,
			UniqueKey: point.Key,
		}
		if b.stride > 0 {
			row.Stride = models.Float(b.stride)
		}
		payload = append(payload, row)
	}

	return payload
}

// Size returns the number of table rows covered by the batch, aliases included.
func (b *Batch) Size() int {
	size := len(b.Points)
	for _, keys := range b.aliases {
		size += len(keys)
	}

	return size
}

// Expand copies every result row to the rows sharing its coordinates.
func (b *Batch) Expand(resp *models.ResponseTable) *models.ResponseTable {
	if resp == nil {
		return &models.ResponseTable{}
	}

	out := &models.ResponseTable{Columns: slices.Clone(resp.Columns)}
	for _, row := range resp.Rows {
		out.Rows = append(out.Rows, row)
		for _, alias := range b.aliases[row.Key] {
			out.Rows = append(out.Rows, models.ResponseRow{Key: alias, Values: row.Values})
		}
	}

	return out
}
