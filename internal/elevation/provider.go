package elevation

import (
	"context"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

// Provider is an interface that defines a method for looking up terrain features.
// Lookup takes the chronologically ordered coordinates of one asset and returns
// one result row per coordinate, keyed by the unique key it was sent with.
type Provider interface {
	Lookup(ctx context.Context, payload []models.PayloadRow) (*models.ResponseTable, error)
}

// HealthChecker is implemented by providers that can report backend availability.
type HealthChecker interface {
	Health(ctx context.Context) error
}
