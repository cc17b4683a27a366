package observability

import (
	"context"
	"testing"

	"github.com/annel0/mapclip/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTelemetry(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	_, span := Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.IsRecording(), "без InitTelemetry спаны не пишутся")
	span.End()

	shutdown, err := InitTelemetry(context.Background(), config.TelemetryConfig{
		Enabled:  true,
		Endpoint: "127.0.0.1:4318",
		Insecure: true,
	})
	require.NoError(t, err)

	_, span = Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	// спан не завершаем: экспортировать в пустой коллектор нечего

	require.NoError(t, shutdown(context.Background()))
}
