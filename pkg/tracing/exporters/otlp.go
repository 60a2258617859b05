package exporters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

// OTLPConfig holds configuration for the OTLP trace exporter
type OTLPConfig struct {
	// Endpoint is the OTLP collector endpoint (e.g., "localhost:4318")
	Endpoint string

	// Insecure disables TLS (for local development)
	Insecure bool

	// Headers to include with each request
	Headers map[string]string

	// Timeout for the exporter
	Timeout time.Duration
}

// DefaultOTLPConfig returns a default configuration for local development
func DefaultOTLPConfig() OTLPConfig {
	return OTLPConfig{
		Endpoint: "localhost:4318",
		Insecure: true,
		Timeout:  10 * time.Second,
	}
}

// NewOTLPExporter creates a new HTTP-based OTLP trace exporter
func NewOTLPExporter(ctx context.Context, config OTLPConfig) (*otlptrace.Exporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	}

	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(config.Headers))
	}

	return otlptracehttp.New(ctx, opts...)
}
