package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ServiceName != "sitecal" {
		t.Errorf("expected service name 'sitecal', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected instrumentation to be enabled by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected prometheus metrics exporter, got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected no tracing exporter, got %q", config.TracingExporter)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "default config is valid",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "sampling rate above 1.0",
			config: Config{
				MetricsExporter:   ExporterPrometheus,
				TracingExporter:   ExporterNone,
				TraceSamplingRate: 1.5,
			},
			wantErr: true,
		},
		{
			name: "negative sampling rate",
			config: Config{
				MetricsExporter:   ExporterPrometheus,
				TracingExporter:   ExporterNone,
				TraceSamplingRate: -0.1,
			},
			wantErr: true,
		},
		{
			name: "unknown metrics exporter",
			config: Config{
				MetricsExporter: "statsd",
				TracingExporter: ExporterNone,
			},
			wantErr: true,
		},
		{
			name: "unknown tracing exporter",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: "jaeger",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisabledProviderIsNoOp(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to report disabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("expected a no-op metrics recorder, got nil")
	}
	if provider.MetricsHandler() != nil {
		t.Error("expected no metrics handler when disabled")
	}

	// Recording on a no-op recorder must not panic.
	provider.Metrics().RecordGoogleAPIOperation(ctx, ServiceCalendar, "insert", StatusSuccess, time.Second)
	provider.Metrics().RecordOAuthAuth(ctx, OAuthResultSuccess)
	provider.Metrics().RecordEventsAggregated(ctx, "project", 3)

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	// Tracer from a disabled provider still produces usable spans.
	_, span := provider.Tracer("test").Start(ctx, "noop")
	span.End()
}

func TestProviderWithPrometheusExporter(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "sitecal-test",
		ServiceVersion:  "0.0.1",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	if !provider.Enabled() {
		t.Error("expected provider to report enabled")
	}
	if provider.MetricsHandler() == nil {
		t.Error("expected a metrics handler")
	}

	m := provider.Metrics()
	if m == nil {
		t.Fatal("expected a metrics recorder")
	}
	m.RecordGoogleAPIOperation(ctx, ServiceDrive, "upload", StatusError, 250*time.Millisecond)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
}
