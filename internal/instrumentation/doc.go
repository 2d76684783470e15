// Package instrumentation provides OpenTelemetry instrumentation for the
// sitecal CLI.
//
// This package enables observability through:
//   - OpenTelemetry metrics for Google API calls, OAuth operations, and aggregation
//   - Tracing for sync operations against Google Calendar and Drive
//   - Prometheus metrics export
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Authentication Metrics:
//   - oauth_auth_total: Counter of OAuth authentication events by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Aggregation Metrics:
//   - calendar_events_aggregated_total: Counter of events produced per category
//
// # Tracing
//
// Spans are created for Google API calls (google.<service>.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (stdout, none, default: none)
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: sitecal)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "sitecal",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordGoogleAPIOperation(ctx, "calendar", "insert", "success", time.Since(start))
package instrumentation
