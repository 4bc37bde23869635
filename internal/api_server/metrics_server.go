package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/pkg/metrics"
)

const jobStatusRefreshInterval = 15 * time.Second

// MetricServer exposes the prometheus registry and keeps the job status gauge
// in sync with the job registry while it runs.
type MetricServer struct {
	bindAddress string
	httpServer  *http.Server
	listener    net.Listener
	updater     *metrics.JobStatusUpdater
}

func NewMetricServer(bindAddress string, listener net.Listener, counter metrics.JobCounter, statuses ...string) *MetricServer {
	router := chi.NewRouter()
	router.Use(chiMiddleware.Recoverer)
	router.Method(http.MethodGet, "/metrics", metrics.NewPrometheusMetricsHandler().Handler())

	return &MetricServer{
		bindAddress: bindAddress,
		listener:    listener,
		httpServer: &http.Server{
			Addr:              bindAddress,
			Handler:           router,
			ReadHeaderTimeout: gracefulShutdownTimeout,
		},
		updater: metrics.NewJobStatusUpdater(counter, jobStatusRefreshInterval, statuses...),
	}
}

func (m *MetricServer) Run(ctx context.Context) error {
	logger := zap.S().Named("metrics_server")

	go m.updater.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		m.httpServer.SetKeepAlivesEnabled(false)
		if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("metrics server shutdown", "error", err)
		}
		logger.Info("metrics server terminated")
	}()

	logger.Infow("serving metrics", "address", m.bindAddress)
	err := m.httpServer.Serve(m.listener)
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
