package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/internal/auth"
	"github.com/x402punks/punk-pinner/internal/config"
	handlers "github.com/x402punks/punk-pinner/internal/handlers/v1alpha1"
	"github.com/x402punks/punk-pinner/pkg/metrics"
	"github.com/x402punks/punk-pinner/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	jobs     handlers.JobService
	listener net.Listener
}

// New returns a new instance of the upload API server.
func New(
	cfg *config.Config,
	jobs handlers.JobService,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		jobs:     jobs,
		listener: listener,
	}
}

// Handler builds the router of the upload API.
func (s *Server) Handler() (http.Handler, error) {
	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	buckets, err := metrics.ParseBuckets(s.cfg.Service.LatencyBuckets)
	if err != nil {
		return nil, err
	}
	metricMiddleware := metrics.NewMiddleware("api_server", buckets)
	if err := metricMiddleware.Register(prometheus.DefaultRegisterer); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register http metrics: %w", err)
		}
	}

	router := chi.NewRouter()
	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"https://*", "http://*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", handlers.Health)
	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticator)
		handlers.NewServiceHandler(s.jobs, s.cfg.Service.Prefix).Routes(r)
	})

	return router, nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	handler, err := s.Handler()
	if err != nil {
		return err
	}
	srv := http.Server{Addr: s.cfg.Service.Address, Handler: handler}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
