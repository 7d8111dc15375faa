package tracing_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/groundhog/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("disabled", func(t *testing.T) {
		var out bytes.Buffer
		shutdown, err := tracing.Setup(ctx, false, &out, logger)
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(ctx, "noop")
		span.End()

		require.NoError(t, shutdown(ctx))
		assert.Empty(t, out.String())
	})

	t.Run("enabled exports spans", func(t *testing.T) {
		var out bytes.Buffer
		shutdown, err := tracing.Setup(ctx, true, &out, logger)
		require.NoError(t, err)

		_, span := otel.Tracer("test").Start(ctx, "AppendSlopeFeatures")
		span.End()

		tracing.Shutdown(ctx, shutdown, logger)
		assert.Contains(t, out.String(), "AppendSlopeFeatures")
		assert.Contains(t, out.String(), tracing.ServiceName)
	})
}
