package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"github.com/UnknownOlympus/groundhog/internal/models"
	"github.com/UnknownOlympus/groundhog/internal/repository"
)

// TableEnricher adds terrain features to a trace table in place.
type TableEnricher interface {
	AppendSlopeFeatures(ctx context.Context, table *models.Table) error
}

// Options holds the polling settings of the service.
type Options struct {
	Workers      int           // Number of assets enriched concurrently
	PollInterval time.Duration // Interval between polls
	AssetLimit   int           // Maximum number of assets fetched per poll
	MaxAttempts  int           // Points failing this often are no longer fetched
}

// EnrichmentService periodically enriches the pending track points stored in
// the repository and writes the features back.
type EnrichmentService struct {
	log      *slog.Logger         // Logger for logging service activities
	repo     repository.Interface // Interface for data repository access
	enricher TableEnricher        // Enricher querying the elevation provider
	metrics  *metrics.Metrics     // Metrics for tracking service performance
	opts     Options
}

// NewEnrichmentService creates a new instance of EnrichmentService.
func NewEnrichmentService(
	log *slog.Logger,
	repo repository.Interface,
	enricher TableEnricher,
	metrics *metrics.Metrics,
	opts Options,
) *EnrichmentService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &EnrichmentService{
		log:      log,
		repo:     repo,
		enricher: enricher,
		metrics:  metrics,
		opts:     opts,
	}
}

// Run starts the enrichment service, which periodically polls for pending track points.
// It listens for a cancellation signal from the context to gracefully stop the service.
func (es *EnrichmentService) Run(ctx context.Context) {
	ticker := time.NewTicker(es.opts.PollInterval)
	defer ticker.Stop()

	es.log.InfoContext(ctx, "Enrichment service started...")

	for {
		select {
		case <-ctx.Done():
			es.log.InfoContext(ctx, "Enrichment service stopped.")
			return
		case <-ticker.C:
			es.log.InfoContext(ctx, "Polling for pending track points...")
			es.processBatch(ctx)
		}
	}
}

// processBatch fetches pending points, splits them by asset and lets the worker
// pool enrich every asset. It returns once all assets were handled.
func (es *EnrichmentService) processBatch(ctx context.Context) {
	table, err := es.repo.FetchPendingPoints(ctx, es.opts.AssetLimit, es.opts.MaxAttempts)
	if err != nil {
		es.log.ErrorContext(ctx, "Failed to fetch pending points", "error", err)
		return
	}

	assets := table.SplitByAsset()
	es.metrics.PendingAssets.Set(float64(len(assets)))
	if len(assets) == 0 {
		es.log.InfoContext(ctx, "No track points to process.")
		return
	}

	es.log.InfoContext(
		ctx,
		"Found assets to process. Starting worker pool.",
		"assets", len(assets),
		"points", table.Len(),
		"num_workers", es.opts.Workers,
	)

	jobs := make(chan *models.Table, len(assets))
	var wgr sync.WaitGroup

	for i := 1; i <= es.opts.Workers; i++ {
		wgr.Add(1)
		go es.worker(ctx, i, &wgr, jobs)
	}

	for _, asset := range assets {
		jobs <- asset
	}
	close(jobs)

	wgr.Wait()
	es.log.InfoContext(ctx, "Processing batch finished")
}

// worker enriches the asset tables received from jobs. A failed asset gets its
// failure count incremented, an enriched one is saved.
func (es *EnrichmentService) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan *models.Table) {
	defer wg.Done()
	for asset := range jobs {
		es.metrics.ActiveWorkers.Inc()
		es.enrichAsset(ctx, idx, asset)
		es.metrics.ActiveWorkers.Dec()
	}
}

func (es *EnrichmentService) enrichAsset(ctx context.Context, idx int, asset *models.Table) {
	assetID := asset.Points[0].AssetID
	es.log.DebugContext(ctx, "Processing asset", "worker", idx, "asset", assetID, "points", asset.Len())

	if err := es.enricher.AppendSlopeFeatures(ctx, asset); err != nil {
		es.log.ErrorContext(ctx, "Failed to enrich asset", "worker", idx, "asset", assetID, "error", err)

		if err = es.repo.IncrementFailureCount(ctx, assetID, err.Error()); err != nil {
			es.log.ErrorContext(
				ctx,
				"Could not update failure count for asset",
				"worker", idx,
				"asset", assetID,
				"error", err,
			)
		}
		return
	}

	if err := es.repo.SaveFeatures(ctx, asset); err != nil {
		es.log.ErrorContext(ctx, "Failed to save features for asset", "worker", idx, "asset", assetID, "error", err)
		return
	}

	es.log.DebugContext(ctx, "Worker successfully processed the asset", "worker", idx, "asset", assetID)
}
