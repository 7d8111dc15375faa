package elevation

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"googlemaps.github.io/maps"
)

// ProviderType represents the type of elevation provider.
type ProviderType string

const (
	// ProviderTypeGroundhog represents the groundhog terrain service.
	ProviderTypeGroundhog ProviderType = "groundhog"
	// ProviderTypeGoogle represents the Google Maps Elevation API.
	ProviderTypeGoogle ProviderType = "google"
)

// ProviderConfig holds configuration for creating an elevation provider.
type ProviderConfig struct {
	Type          ProviderType     // Type of provider to create
	Host          string           // Host of the groundhog service
	Port          int              // Port of the groundhog service
	Timeout       time.Duration    // Per-attempt HTTP timeout (groundhog)
	Attempts      int              // Maximum attempts per lookup (groundhog)
	RetryInterval time.Duration    // Initial delay between attempts (groundhog)
	APIKey        string           // API key (used by Google provider)
	RateLimit     int              // Rate limit for requests per second
	Stride        float64          // Default slope stride in meters (used by Google provider)
	Logger        *slog.Logger     // Logger for the provider
	Metrics       *metrics.Metrics // Metrics for request outcomes
}

// NewProvider creates an elevation provider based on the provided configuration.
//
// Supported provider types:
// - "groundhog": the groundhog terrain service over HTTP (default)
// - "google": Google Maps Elevation API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGroundhog, "":
		return NewGroundhogProvider(config), nil
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newGoogleProvider creates a Google Maps elevation provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Stride, config.Logger), nil
}
