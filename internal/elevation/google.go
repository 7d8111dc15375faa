package elevation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/groundhog/internal/models"
	"googlemaps.github.io/maps"
)

// DefaultStride is the distance in meters over which slope is measured.
const DefaultStride = 250.0

// maxLocationsPerRequest is the Elevation API limit of locations per call.
const maxLocationsPerRequest = 512

// GoogleProvider computes terrain features from the Google Maps Elevation API.
// It follows the groundhog contract: bearing is taken from the payload or
// derived from the next coordinate, slope is the elevation difference between
// the points one stride ahead and one stride behind, divided by the stride.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
	stride float64         // stride used when the payload carries none
}

type GoogleAPIClient interface {
	Elevation(ctx context.Context, r *maps.ElevationRequest) ([]maps.ElevationResult, error)
}

// ErrIncompleteElevations is returned when the API answers with fewer results than locations requested.
var ErrIncompleteElevations = errors.New("got incomplete response from Google Elevation API")

// heading is one payload row prepared for elevation sampling.
type heading struct {
	key       string
	origin    models.Coordinates
	bearing   *float64
	stride    float64
	originIdx int
	aheadIdx  int
	behindIdx int
}

// NewGoogleProvider initializes a new GoogleProvider with the given client and logger.
// A non-positive stride falls back to DefaultStride.
func NewGoogleProvider(client GoogleAPIClient, stride float64, log *slog.Logger) *GoogleProvider {
	if stride <= 0 {
		stride = DefaultStride
	}
	if log == nil {
		log = slog.Default()
	}

	return &GoogleProvider{client: client, log: log, stride: stride}
}

// Lookup samples elevations for every coordinate of the payload and returns the
// same columns the groundhog service does.
func (gp *GoogleProvider) Lookup(ctx context.Context, payload []models.PayloadRow) (*models.ResponseTable, error) {
	gp.log.DebugContext(ctx, "Looking up elevations using Google Maps", "coordinates", len(payload))

	headings := gp.headings(payload)

	var locations []maps.LatLng
	for i := range headings {
		h := &headings[i]
		h.originIdx = len(locations)
		locations = append(locations, latLng(h.origin))
		if h.bearing == nil {
			continue
		}
		h.aheadIdx = len(locations)
		locations = append(locations, latLng(Destination(h.origin, h.stride, *h.bearing)))
		h.behindIdx = len(locations)
		locations = append(locations, latLng(Destination(h.origin, -h.stride, *h.bearing)))
	}

	elevations, err := gp.elevations(ctx, locations)
	if err != nil {
		return nil, err
	}

	table := &models.ResponseTable{}
	for _, h := range headings {
		values := map[string]*float64{
			string(models.ColumnLatitude):  models.Float(h.origin.Latitude),
			string(models.ColumnLongitude): models.Float(h.origin.Longitude),
			string(models.ColumnBearing):   h.bearing,
			models.StrideColumn:            models.Float(h.stride),
			string(models.ColumnElevation): models.Float(elevations[h.originIdx]),
			string(models.ColumnSlope):     nil,
		}
		if h.bearing != nil {
			slope := (elevations[h.aheadIdx] - elevations[h.behindIdx]) / h.stride
			values[string(models.ColumnSlope)] = &slope
		}
		table.Append(models.ResponseRow{Key: h.key, Values: values})
	}

	return table, nil
}

// headings resolves bearings: a supplied bearing wins, otherwise the bearing
// towards the next coordinate is used. The last coordinate without a supplied
// bearing gets none and therefore no slope.
func (gp *GoogleProvider) headings(payload []models.PayloadRow) []heading {
	headings := make([]heading, len(payload))
	for i, row := range payload {
		h := heading{
			key:    row.UniqueKey,
			origin: models.Coordinates{Latitude: row.Latitude, Longitude: NormalizeLongitude(row.Longitude)},
			stride: gp.stride,
		}
		if row.Stride != nil && *row.Stride > 0 {
			h.stride = *row.Stride
		}
		switch {
		case row.Bearing != nil:
			h.bearing = models.Float(*row.Bearing)
		case i+1 < len(payload):
			next := models.Coordinates{Latitude: payload[i+1].Latitude, Longitude: payload[i+1].Longitude}
			h.bearing = models.Float(InitialBearing(h.origin, next))
		}
		headings[i] = h
	}

	return headings
}

func (gp *GoogleProvider) elevations(ctx context.Context, locations []maps.LatLng) ([]float64, error) {
	out := make([]float64, 0, len(locations))
	for start := 0; start < len(locations); start += maxLocationsPerRequest {
		end := min(start+maxLocationsPerRequest, len(locations))
		req := maps.ElevationRequest{Locations: locations[start:end]}

		results, err := gp.client.Elevation(ctx, &req)
		if err != nil {
			return nil, fmt.Errorf("failed to look up elevations: %w", err)
		}
		if len(results) != end-start {
			return nil, fmt.Errorf("%w: requested %d, got %d", ErrIncompleteElevations, end-start, len(results))
		}
		for _, result := range results {
			out = append(out, result.Elevation)
		}
	}

	return out, nil
}

func latLng(c models.Coordinates) maps.LatLng {
	return maps.LatLng{Lat: c.Latitude, Lng: c.Longitude}
}
