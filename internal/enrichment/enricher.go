package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/elevation"
	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"github.com/UnknownOlympus/groundhog/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/UnknownOlympus/groundhog/internal/enrichment"

// Options tune an Enricher.
type Options struct {
	ProviderName string       // ProviderName labels request metrics.
	Stride       float64      // Stride in meters sent with every coordinate, 0 keeps the service default.
	KeyGenerator KeyGenerator // KeyGenerator overrides uuid.NewRandom.
}

// Enricher appends terrain features to trace tables using an elevation provider.
type Enricher struct {
	log      *slog.Logger
	provider elevation.Provider
	metrics  *metrics.Metrics
	opts     Options
	tracer   trace.Tracer
}

// NewEnricher creates an Enricher.
func NewEnricher(log *slog.Logger, provider elevation.Provider, metrics *metrics.Metrics, opts Options) *Enricher {
	if opts.ProviderName == "" {
		opts.ProviderName = string(elevation.ProviderTypeGroundhog)
	}

	return &Enricher{
		log:      log,
		provider: provider,
		metrics:  metrics,
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
	}
}

// AppendSlopeFeatures queries the groundhog service at hostName:port and adds
// bearing, slope and elevation to table when they are missing.
func AppendSlopeFeatures(ctx context.Context, table *models.Table, hostName string, port int) error {
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	provider := elevation.NewGroundhogProvider(elevation.ProviderConfig{
		Type:          elevation.ProviderTypeGroundhog,
		Host:          hostName,
		Port:          port,
		RetryInterval: elevation.DefaultRetryInterval,
		Logger:        slog.Default(),
		Metrics:       appMetrics,
	})

	return NewEnricher(slog.Default(), provider, appMetrics, Options{}).AppendSlopeFeatures(ctx, table)
}

// AppendSlopeFeatures adds bearing, slope and elevation to table when they are
// missing, modifying it in place.
//
// Assets are queried one after another. The table is only modified after
// every asset was answered and the results passed the integrity checks, so on
// error it is left as it was.
func (e *Enricher) AppendSlopeFeatures(ctx context.Context, table *models.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	if table.Len() == 0 {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "AppendSlopeFeatures", trace.WithAttributes(
		attribute.Int("groundhog.rows", table.Len()),
	))
	defer span.End()

	keys, err := AssignKeys(table.Len(), e.opts.KeyGenerator)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	batches := BuildBatches(table, keys, e.opts.Stride)
	e.log.InfoContext(ctx, "Querying elevation provider", "assets", len(batches), "rows", table.Len())

	responses := make([]*models.ResponseTable, 0, len(batches))
	for idx, batch := range batches {
		resp, errLookup := e.lookup(ctx, batch)
		if errLookup != nil {
			e.metrics.AssetsProcessed.WithLabelValues("failure").Inc()
			span.SetStatus(codes.Error, errLookup.Error())
			return fmt.Errorf("failed to enrich asset %s: %w", batch.AssetID, errLookup)
		}
		e.metrics.AssetsProcessed.WithLabelValues("success").Inc()
		responses = append(responses, resp)

		e.log.InfoContext(ctx, "Asset processed", "asset", batch.AssetID, "count", idx+1, "total", len(batches))
	}

	added, err := Merge(table, keys, models.ConcatResponses(responses...))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to merge enrichment results: %w", err)
	}
	e.metrics.RowsEnriched.Add(float64(table.Len()))

	e.log.DebugContext(ctx, "Enrichment finished", "added_columns", added)

	return nil
}

// lookup sends one batch and expands the answer to the rows sharing coordinates.
func (e *Enricher) lookup(ctx context.Context, batch *Batch) (*models.ResponseTable, error) {
	if len(batch.Points) == 0 {
		e.log.DebugContext(ctx, "No queryable coordinates for asset", "asset", batch.AssetID)
		return &models.ResponseTable{}, nil
	}

	ctx, span := e.tracer.Start(ctx, "Lookup", trace.WithAttributes(
		attribute.String("groundhog.asset", batch.AssetID),
		attribute.Int("groundhog.coordinates", len(batch.Points)),
	))
	defer span.End()

	payload := batch.Payload()
	startTime := time.Now()
	resp, err := e.provider.Lookup(ctx, payload)
	e.metrics.RequestSeconds.WithLabelValues(e.opts.ProviderName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if len(resp.Rows) != len(payload) {
		e.log.WarnContext(ctx, "Provider answered a different number of rows",
			"asset", batch.AssetID,
			"sent", len(payload),
			"received", len(resp.Rows))
	}

	return batch.Expand(resp), nil
}
