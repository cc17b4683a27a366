package observability

import (
	"context"
	"time"

	"github.com/annel0/mapclip/internal/config"
	"github.com/annel0/mapclip/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 5 * time.Second

// InitTelemetry ставит глобальный TracerProvider с OTLP HTTP экспортером.
// Пустой Endpoint - значение по умолчанию экспортера (localhost:4318 или OTEL_EXPORTER_OTLP_ENDPOINT).
// Возвращённую функцию нужно вызвать при выходе, иначе хвост спанов потеряется.
func InitTelemetry(ctx context.Context, tc config.TelemetryConfig) (func(context.Context) error, error) {
	var opts []otlptracehttp.Option
	if tc.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(tc.Endpoint))
	}
	if tc.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(tc.GetServiceName())),
	)
	if err != nil {
		return nil, err
	}

	ratio := tc.GetSampleRatio()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	logging.Info("📡 Трассировка включена: service=%s, sample=%.2f", tc.GetServiceName(), ratio)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer трейсер пакета из глобального провайдера.
// Без InitTelemetry провайдер no-op и спаны ничего не стоят.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/annel0/mapclip/" + name)
}
