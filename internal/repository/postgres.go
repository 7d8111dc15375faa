package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

// FetchPendingPoints retrieves the track points that still lack terrain features.
// It picks up to assetLimit assets, oldest pending observation first, and returns every
// pending point of those assets that failed fewer than maxAttempts times.
//
// The returned table carries a bearing column only when every fetched point has one.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - assetLimit: The maximum number of assets to retrieve.
// - maxAttempts: Points with this many failed enrichments are skipped.
//
// Returns:
// - A table of pending points ordered by asset and time.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchPendingPoints(ctx context.Context, assetLimit, maxAttempts int) (*models.Table, error) {
	query := `
		SELECT point_id, asset_id, recorded_at, latitude, longitude, bearing
		FROM public.track_points
		WHERE
			enriched_at IS NULL
			AND enrichment_attempts < $2
			AND asset_id IN (
				SELECT asset_id
				FROM public.track_points
				WHERE enriched_at IS NULL AND enrichment_attempts < $2
				GROUP BY asset_id
				ORDER BY MIN(recorded_at) ASC
				LIMIT $1
			)
		ORDER BY asset_id, recorded_at, point_id;
	`

	rows, err := r.db.Query(ctx, query, assetLimit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending track points: %w", err)
	}
	defer rows.Close()

	var points []models.TrackPoint
	withBearing := true
	for rows.Next() {
		var point models.TrackPoint
		errScan := rows.Scan(
			&point.ID, &point.AssetID, &point.DateTime, &point.Latitude, &point.Longitude, &point.Bearing,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan pending track point: %w", errScan)
		}
		if point.Bearing == nil {
			withBearing = false
		}
		points = append(points, point)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	var optional []models.Column
	if withBearing && len(points) > 0 {
		optional = append(optional, models.ColumnBearing)
	}
	r.log.DebugContext(ctx, "Pending track points received", "points", len(points))

	return models.NewTable(points, optional...), nil
}

// SaveFeatures stores bearing, elevation and slope of every persisted point of the table
// in a single transaction and marks the points as enriched. A bearing already stored is kept.
func (r *Repository) SaveFeatures(ctx context.Context, table *models.Table) error {
	query := `
		UPDATE public.track_points
		SET
			bearing = COALESCE(bearing, $1),
			elevation = $2,
			slope = $3,
			enriched_at = NOW(),
			enrichment_error = NULL
		WHERE
			point_id = $4;
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, point := range table.Points {
		if point.ID == 0 {
			continue
		}
		if _, err = tx.Exec(ctx, query, point.Bearing, point.Elevation, point.Slope, point.ID); err != nil {
			if errRollback := tx.Rollback(ctx); errRollback != nil {
				r.log.ErrorContext(ctx, "Failed to roll back transaction", "error", errRollback)
			}
			return fmt.Errorf("failed to update features of point %d: %w", point.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit features: %w", err)
	}

	return nil
}

// IncrementFailureCount increments the enrichment attempt count of every pending point
// of the asset and updates the associated error message.
func (r *Repository) IncrementFailureCount(ctx context.Context, assetID string, errMsg string) error {
	query := `
		UPDATE public.track_points
		SET
			enrichment_attempts = enrichment_attempts + 1,
			enrichment_error = $1
		WHERE asset_id = $2 AND enriched_at IS NULL;
	`

	_, err := r.db.Exec(ctx, query, errMsg, assetID)
	if err != nil {
		return fmt.Errorf("failed to update enrichment error and number of attempts: %w", err)
	}

	return nil
}
