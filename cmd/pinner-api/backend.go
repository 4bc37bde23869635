package main

import (
	"fmt"

	"github.com/x402punks/punk-pinner/internal/config"
	"github.com/x402punks/punk-pinner/internal/pinning"
	"github.com/x402punks/punk-pinner/internal/retry"
	"github.com/x402punks/punk-pinner/internal/service"
)

const (
	backendPinata = "pinata"
	backendIPFS   = "ipfs"
	backendS3     = "s3"
)

func newPinningClient(cfg *config.Config) (pinning.Client, error) {
	timeout := cfg.Upload.TimeoutDuration()

	switch cfg.Upload.Backend {
	case backendPinata:
		opts := []pinning.PinataOpts{
			pinning.WithPinataBaseURL(cfg.Pinata.BaseURL),
			pinning.WithPinataTimeout(timeout),
		}
		if cfg.Pinata.JWT != "" {
			opts = append(opts, pinning.WithJWT(cfg.Pinata.JWT))
		} else {
			opts = append(opts, pinning.WithAPIKey(cfg.Pinata.APIKey, cfg.Pinata.APISecret))
		}
		c, err := pinning.NewPinataClient(opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case backendIPFS:
		return pinning.NewIPFSClient(
			pinning.WithIPFSAPIURL(cfg.IPFS.APIURL),
			pinning.WithIPFSToken(cfg.IPFS.Token),
			pinning.WithIPFSTimeout(timeout),
		), nil
	case backendS3:
		c, err := pinning.NewS3Client(
			pinning.WithS3Endpoint(cfg.S3.Endpoint),
			pinning.WithS3Bucket(cfg.S3.Bucket),
			pinning.WithS3Prefix(cfg.S3.Prefix),
			pinning.WithS3Credentials(cfg.S3.AccessKey, cfg.S3.SecretKey),
			pinning.WithS3SSL(cfg.S3.UseSSL),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Upload.Backend)
	}
}

func newJobManager(cfg *config.Config, client pinning.Client, opts ...service.JobManagerOption) *service.JobManager {
	policy := retry.NewPolicy(cfg.Upload.Retries, cfg.Upload.BackoffDuration(), cfg.Upload.MaxBackoffDuration())

	opts = append([]service.JobManagerOption{
		service.WithBatchSize(cfg.Upload.BatchSize),
		service.WithBatchPause(cfg.Upload.BatchPauseDuration()),
		service.WithPattern(cfg.Service.Prefix + "_*.png"),
		service.WithDefaultDirectory(cfg.Service.OutputDir),
	}, opts...)

	return service.NewJobManager(client, policy, opts...)
}
