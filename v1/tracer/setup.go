package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=tracer

// Logger is the logging surface the tracer needs.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Tracer owns the process wide tracer provider.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient builds the tracer provider from cfg, installs it as the global provider
// and configures W3C trace context propagation.
func NewClient(cfg Config, logger Logger) (*Tracer, error) {
	return NewClientWithOptions(cfg, logger)
}

// NewClientWithOptions is NewClient with extra provider options, e.g. a span
// recorder in tests.
func NewClientWithOptions(cfg Config, logger Logger, extra ...trace.TracerProviderOption) (*Tracer, error) {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			return nil, fmt.Errorf("cannot initiate trace exporter: %w", err)
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		options = append(options, trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))
	options = append(options, extra...)

	tp := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("tracer initialised", nil, map[string]interface{}{
		"service": cfg.ServiceName,
		"export":  cfg.EnableExport,
	})
	return &Tracer{tracer: tp, logger: logger}, nil
}
