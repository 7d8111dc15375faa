package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/groundhog/internal/config"
	"github.com/UnknownOlympus/groundhog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trace = `assetId,dateTime,latitude,longitude
truck-1,2024-05-01T08:00:00Z,41.5,-89.1
truck-1,2024-05-01T08:01:00Z,41.51,-89.11
`

func fileModeConfig(t *testing.T, handler http.HandlerFunc) *config.Config {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	input := filet.TmpFile(t, "", trace)

	return &config.Config{
		Input:  input.Name(),
		Output: filepath.Join(filet.TmpDir(t, ""), "enriched.csv"),
		Provider: config.ProviderConfig{
			Type:          "groundhog",
			Host:          host,
			Port:          port,
			Timeout:       time.Second,
			Attempts:      2,
			RetryInterval: time.Millisecond,
		},
		Tracing: config.TracingConfig{Enabled: true},
	}
}

func TestRun_FileMode(t *testing.T) {
	defer filet.CleanUp(t)
	ctx := t.Context()

	t.Run("enriched trace written", func(t *testing.T) {
		cfg := fileModeConfig(t, func(w http.ResponseWriter, r *http.Request) {
			var payload []models.PayloadRow
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			out := make([]map[string]any, 0, len(payload))
			for _, row := range payload {
				out = append(out, map[string]any{
					"unique_key": row.UniqueKey,
					"elevation":  200.0,
					"slope":      0.01,
					"bearing":    45.0,
				})
			}
			_ = json.NewEncoder(w).Encode(out)
		})
		var spans bytes.Buffer

		code := run(ctx, cfg, slog.Default(), &spans)

		require.Equal(t, 0, code)
		written, err := os.ReadFile(cfg.Output)
		require.NoError(t, err)
		assert.Contains(t, string(written), "assetId,dateTime,latitude,longitude,bearing,elevation,slope")
		assert.Contains(t, spans.String(), "AppendSlopeFeatures")
	})

	t.Run("failed enrichment still flushes spans", func(t *testing.T) {
		cfg := fileModeConfig(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
		})
		var spans bytes.Buffer

		code := run(ctx, cfg, slog.Default(), &spans)

		assert.Equal(t, 1, code)
		assert.Contains(t, spans.String(), "AppendSlopeFeatures")
		assert.NoFileExists(t, cfg.Output)
	})
}
