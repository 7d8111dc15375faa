package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/groundhog/internal/models"
)

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	FetchPendingPoints(ctx context.Context, assetLimit, maxAttempts int) (*models.Table, error)
	SaveFeatures(ctx context.Context, table *models.Table) error
	IncrementFailureCount(ctx context.Context, assetID string, errMsg string) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
