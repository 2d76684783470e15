package cmd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yhlin/sitecal/internal/instrumentation"
	"github.com/yhlin/sitecal/internal/logging"
)

var metricsAddr string

// setupTelemetry creates the instrumentation provider for one command run.
// When --metrics-addr is set, a Prometheus endpoint is served for the
// lifetime of the command so scheduled sync runs can be scraped. The
// returned cleanup must be deferred.
func setupTelemetry(ctx context.Context) (*instrumentation.Provider, func(), error) {
	cfg := instrumentation.DefaultConfig()
	cfg.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var srv *http.Server
	if metricsAddr != "" {
		if handler := provider.MetricsHandler(); handler != nil {
			mux := http.NewServeMux()
			mux.Handle(cfg.PrometheusEndpoint, handler)
			srv = &http.Server{Addr: metricsAddr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics server failed", logging.Err(err))
				}
			}()
		}
	}

	cleanup := func() {
		if srv != nil {
			_ = srv.Close()
		}
		_ = provider.Shutdown(ctx)
	}
	return provider, cleanup, nil
}
