package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/x402punks/punk-pinner/internal/api_server"
	"github.com/x402punks/punk-pinner/internal/events"
	"github.com/x402punks/punk-pinner/internal/service"
)

const jobShutdownTimeout = 10 * time.Second

var address string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the upload api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig()
		if err != nil {
			return err
		}
		defer done()

		if address != "" {
			cfg.Service.Address = address
		}

		zap.S().Info("Starting API service...")
		defer zap.S().Info("API service stopped")
		zap.S().Infof("Using config: %s", cfg)

		client, err := newPinningClient(cfg)
		if err != nil {
			zap.S().Fatalw("creating pinning client", "error", err)
		}

		var writer events.Writer = &events.StdoutWriter{}
		if cfg.Service.EventsFile != "" {
			fw, err := events.NewFileWriter(cfg.Service.EventsFile)
			if err != nil {
				return err
			}
			writer = fw
		}
		producer := events.NewEventProducer(writer)
		defer func() { _ = producer.Close() }()

		jobs := newJobManager(cfg, client, service.WithPublisher(producer))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobShutdownTimeout)
			defer cancel()
			if err := jobs.Shutdown(ctx); err != nil {
				zap.S().Warnw("jobs still running at exit", "error", err)
			}
		}()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, jobs, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			statuses := make([]string, 0, len(service.Statuses))
			for _, s := range service.Statuses {
				statuses = append(statuses, string(s))
			}
			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, jobs, statuses...)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("Error running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&address, "address", "", "Address the api listens on, overrides X402_SERVICE_ADDRESS")
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
