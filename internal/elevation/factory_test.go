package elevation_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/groundhog/internal/elevation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	logger := slog.Default()

	t.Run("create Groundhog provider successfully", func(t *testing.T) {
		config, _ := testConfig()
		config.Host = "groundhog"
		config.Port = 5005

		provider, err := elevation.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		groundhog, ok := provider.(*elevation.GroundhogProvider)
		require.True(t, ok, "expected provider to be *GroundhogProvider")
		assert.Equal(t, "http://groundhog:5005/groundhog", groundhog.URL())
	})

	t.Run("empty provider type defaults to Groundhog", func(t *testing.T) {
		config, _ := testConfig()
		config.Type = elevation.ProviderType("")

		provider, err := elevation.NewProvider(config)

		require.NoError(t, err)
		_, ok := provider.(*elevation.GroundhogProvider)
		assert.True(t, ok, "expected provider to be *GroundhogProvider")
	})

	t.Run("create Google provider successfully", func(t *testing.T) {
		config := elevation.ProviderConfig{
			Type:      elevation.ProviderTypeGoogle,
			APIKey:    "test-api-key",
			RateLimit: 10,
			Logger:    logger,
		}

		provider, err := elevation.NewProvider(config)

		require.NoError(t, err)
		require.NotNil(t, provider)
		_, ok := provider.(*elevation.GoogleProvider)
		assert.True(t, ok, "expected provider to be *GoogleProvider")
	})

	t.Run("create Google provider without API key fails", func(t *testing.T) {
		config := elevation.ProviderConfig{
			Type:   elevation.ProviderTypeGoogle,
			Logger: logger,
		}

		provider, err := elevation.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "API key is required for Google provider")
	})

	t.Run("unsupported provider type", func(t *testing.T) {
		config := elevation.ProviderConfig{
			Type:   elevation.ProviderType("unsupported"),
			Logger: logger,
		}

		provider, err := elevation.NewProvider(config)

		require.Error(t, err)
		require.Nil(t, provider)
		assert.Contains(t, err.Error(), "unsupported provider type: unsupported")
	})
}

func TestProviderType_Constants(t *testing.T) {
	assert.Equal(t, "groundhog", string(elevation.ProviderTypeGroundhog))
	assert.Equal(t, "google", string(elevation.ProviderTypeGoogle))
}
