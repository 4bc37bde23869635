package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/internal/config"
	"github.com/x402punks/punk-pinner/pkg/log"
)

var (
	envFile   string
	jwt       string
	apiKey    string
	apiSecret string
	backend   string
)

var rootCmd = &cobra.Command{
	Use:          "pinner-api",
	Short:        "Upload generated x402 punks to a pinning service",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewCmdUpload())
	rootCmd.AddCommand(NewCmdToken())

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file. Variables already set in the environment win")
	rootCmd.PersistentFlags().StringVar(&jwt, "jwt", "", "Pinata JWT, overrides PINATA_JWT")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Pinata API key, overrides PINATA_API_KEY")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", "", "Pinata API secret, overrides PINATA_API_SECRET")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Upload backend (pinata, ipfs or s3), overrides X402_BACKEND")
}

// loadConfig reads the env file, the environment and the command line flags, in
// that order of increasing precedence, and installs the global logger.
func loadConfig() (*config.Config, func(), error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("reading configuration: %w", err)
	}

	if jwt != "" {
		cfg.Pinata.JWT = jwt
	}
	if apiKey != "" {
		cfg.Pinata.APIKey = apiKey
	}
	if apiSecret != "" {
		cfg.Pinata.APISecret = apiSecret
	}
	if backend != "" {
		cfg.Upload.Backend = backend
	}

	logLvl, err := log.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s, using info\n", err)
		logLvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger := log.InitLog(logLvl, cfg.Service.LogFormat)
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}, nil
}
