package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"github.com/UnknownOlympus/groundhog/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Defaults for the groundhog enrichment service.
const (
	DefaultHost          = "localhost"
	DefaultPort          = 5005
	DefaultAttempts      = 5
	DefaultTimeout       = 30 * time.Second
	DefaultRetryInterval = 100 * time.Millisecond
)

// GroundhogProvider implements the Provider interface on top of the groundhog
// terrain service. Every lookup is a single POST of the whole batch; failed
// requests are retried as a whole.
type GroundhogProvider struct {
	client        HTTPClient       // HTTP client for making requests
	baseURL       string           // Base URL of the service, without endpoint path
	attempts      int              // Maximum number of attempts per lookup
	retryInterval time.Duration    // Initial delay between attempts
	limiter       *rate.Limiter    // Client side rate limiter
	metrics       *metrics.Metrics // Metrics for attempt outcomes
	log           *slog.Logger     // Logger for logging operations
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors for the groundhog provider.
var (
	ErrUnexpectedStatus  = errors.New("groundhog service returned unexpected status")
	ErrRetriesExhausted  = errors.New("groundhog request retries exhausted")
	ErrMalformedResponse = errors.New("groundhog service returned malformed response")
	ErrUnhealthy         = errors.New("groundhog service is unhealthy")
)

// NewGroundhogProvider creates a groundhog provider talking to http://{host}:{port}.
func NewGroundhogProvider(config ProviderConfig) *GroundhogProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return NewGroundhogProviderWithClient(client, config)
}

// NewGroundhogProviderWithClient creates a groundhog provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewGroundhogProviderWithClient(client HTTPClient, config ProviderConfig) *GroundhogProvider {
	host := config.Host
	if host == "" {
		host = DefaultHost
	}
	port := config.Port
	if port == 0 {
		port = DefaultPort
	}
	attempts := config.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	retryInterval := max(config.RetryInterval, 0)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appMetrics := config.Metrics
	if appMetrics == nil {
		appMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit)
	}

	return &GroundhogProvider{
		client:        client,
		baseURL:       fmt.Sprintf("http://%s:%d", host, port),
		attempts:      attempts,
		retryInterval: retryInterval,
		limiter:       limiter,
		metrics:       appMetrics,
		log:           logger,
	}
}

// URL returns the lookup endpoint.
func (gp *GroundhogProvider) URL() string {
	return gp.baseURL + "/groundhog"
}

// Lookup posts the payload to the groundhog endpoint and parses the response.
//
// Network errors, body read errors and non-2xx statuses are retried up to the
// configured number of attempts. A response that cannot be parsed is returned
// immediately.
func (gp *GroundhogProvider) Lookup(ctx context.Context, payload []models.PayloadRow) (*models.ResponseTable, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode groundhog payload: %w", err)
	}

	gp.log.DebugContext(ctx, "Querying groundhog", "url", gp.URL(), "coordinates", len(payload))

	attempt := 0
	var result *models.ResponseTable
	operation := func() error {
		attempt++
		table, errReq := gp.post(ctx, body)
		if errReq != nil {
			if errors.Is(errReq, ErrMalformedResponse) {
				gp.metrics.RequestAttempts.WithLabelValues("malformed").Inc()
				return backoff.Permanent(errReq)
			}
			gp.metrics.RequestAttempts.WithLabelValues("failure").Inc()
			return errReq
		}
		gp.metrics.RequestAttempts.WithLabelValues("success").Inc()
		result = table
		return nil
	}
	notify := func(errReq error, wait time.Duration) {
		gp.log.WarnContext(ctx, "Groundhog request failed, retrying",
			"attempt", attempt,
			"max_attempts", gp.attempts,
			"wait", wait,
			"error", errReq)
	}

	if err = backoff.RetryNotify(operation, gp.backoff(ctx), notify); err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("groundhog request cancelled after %d attempts: %w", attempt, err)
		}
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
	}

	return result, nil
}

// Health checks the /health endpoint of the service.
func (gp *GroundhogProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gp.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := gp.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	return nil
}

// post performs a single attempt.
func (gp *GroundhogProvider) post(ctx context.Context, body []byte) (*models.ResponseTable, error) {
	if err := gp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gp.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := gp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute groundhog request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		gp.log.ErrorContext(ctx, "Groundhog API error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, string(respBody))
	}

	table, err := ParseResponse(respBody)
	if err != nil {
		gp.log.ErrorContext(ctx, "Failed to parse groundhog response", "error", err, "body", string(respBody))
		return nil, err
	}

	return table, nil
}

func (gp *GroundhogProvider) backoff(ctx context.Context) backoff.BackOff {
	var base backoff.BackOff = &backoff.ZeroBackOff{}
	if gp.retryInterval > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = gp.retryInterval
		exp.MaxElapsedTime = 0
		base = exp
	}

	return backoff.WithContext(backoff.WithMaxRetries(base, uint64(gp.attempts-1)), ctx)
}
