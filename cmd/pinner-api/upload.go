package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/x402punks/punk-pinner/internal/batch"
	"github.com/x402punks/punk-pinner/internal/files"
	"github.com/x402punks/punk-pinner/internal/handlers/v1alpha1/mappers"
	"github.com/x402punks/punk-pinner/internal/metadata"
	"github.com/x402punks/punk-pinner/internal/service"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

type UploadOptions struct {
	Prefix          string
	Limit           int
	Skip            int
	BatchSize       int
	IncludeMetadata bool
	Pin             bool
	DryRun          bool
	Output          string
}

func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{}
}

func NewCmdUpload() *cobra.Command {
	o := DefaultUploadOptions()
	cmd := &cobra.Command{
		Use:   "upload [DIRECTORY]",
		Short: "Upload a directory once and print the resulting job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *UploadOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Prefix, "prefix", o.Prefix, "Upload the files named <prefix>_*.png, defaults to PUNK_PREFIX")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of files to upload, 0 uploads every file")
	fs.IntVar(&o.Skip, "skip", o.Skip, "Number of files to skip")
	fs.IntVar(&o.BatchSize, "batch-size", o.BatchSize, "Files per batch, defaults to X402_PINATA_BATCH")
	fs.BoolVar(&o.IncludeMetadata, "include-metadata", o.IncludeMetadata, "Upload a metadata document for every image")
	fs.BoolVar(&o.Pin, "pin", o.Pin, "Pin a manifest of the uploaded files")
	fs.BoolVarP(&o.DryRun, "dry-run", "n", o.DryRun, "Print the batch plan without uploading")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *UploadOptions) Validate(_ []string) error {
	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	if o.Limit < 0 {
		return service.NewErrInvalidLimit("limit", o.Limit)
	}
	if o.Skip < 0 {
		return service.NewErrInvalidLimit("skip", o.Skip)
	}
	if o.BatchSize < 0 {
		return batch.NewErrInvalidBatchSize(o.BatchSize)
	}
	return nil
}

func (o *UploadOptions) Run(ctx context.Context, out io.Writer, args []string) error {
	cfg, done, err := loadConfig()
	if err != nil {
		return err
	}
	defer done()

	req := o.request(cfg.Service.OutputDir, cfg.Service.Prefix, cfg.Upload.BatchSize, args)
	if o.DryRun {
		return printPlan(out, req)
	}

	client, err := newPinningClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	job, err := newJobManager(cfg, client).Run(ctx, req)
	if err != nil {
		return err
	}

	if err := o.print(out, job); err != nil {
		return err
	}

	zap.S().Named("upload").Infow("upload finished", "status", job.Status, "completed", job.Completed, "failed", job.Failed, "rate_limit_hits", job.RateLimitHits)
	if job.Status == service.StatusFailed {
		return fmt.Errorf("upload failed: %s", job.Error)
	}
	if job.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to upload", job.Failed, job.Total)
	}
	return nil
}

// request builds the upload request, falling back to the configured defaults.
func (o *UploadOptions) request(outputDir, prefix string, batchSize int, args []string) service.UploadRequest {
	dir := outputDir
	if len(args) == 1 {
		dir = args[0]
	}
	if o.Prefix != "" {
		prefix = o.Prefix
	}
	if o.BatchSize != 0 {
		batchSize = o.BatchSize
	}

	return service.UploadRequest{
		Directory:       dir,
		Pattern:         prefix + "_*.png",
		Limit:           o.Limit,
		Skip:            o.Skip,
		BatchSize:       batchSize,
		IncludeMetadata: o.IncludeMetadata,
		Pin:             o.Pin,
	}
}

func (o *UploadOptions) print(out io.Writer, job *service.Job) error {
	apiJob := mappers.JobToApi(job)

	switch o.Output {
	case jsonFormat:
		marshalled, err := json.Marshal(apiJob)
		if err != nil {
			return fmt.Errorf("marshalling job: %w", err)
		}
		fmt.Fprintf(out, "%s\n", string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(apiJob)
		if err != nil {
			return fmt.Errorf("marshalling job: %w", err)
		}
		fmt.Fprintf(out, "%s\n", string(marshalled))
		return nil
	default:
		return printJobTable(out, job)
	}
}

func printJobTable(out io.Writer, job *service.Job) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "FILE\tOUTCOME\tCID\tATTEMPTS\tERROR")
	for _, r := range job.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", filepath.Base(r.Path), r.Outcome, r.CID, r.Attempts, r.Error)
	}
	fmt.Fprintf(w, "\njob %s %s: %d/%d uploaded, %d failed, %d rate limit hits\n",
		job.ID, job.Status, job.Completed, job.Total, job.Failed, job.RateLimitHits)
	if job.ManifestCID != "" {
		fmt.Fprintf(w, "manifest %s pinned=%t %s\n", job.ManifestCID, job.Pinned, job.PinError)
	}
	return w.Flush()
}

// printPlan prints the batches an upload of req would send.
func printPlan(out io.Writer, req service.UploadRequest) error {
	paths, err := files.List(req.Directory, files.Options{
		Pattern: req.Pattern,
		Exclude: []string{metadata.FileName},
		Skip:    req.Skip,
		Limit:   req.Limit,
	})
	if err != nil {
		return err
	}

	batches, err := batch.Split(paths, req.BatchSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d files in %d batches of at most %d\n", len(paths), len(batches), req.BatchSize)
	for i, b := range batches {
		fmt.Fprintf(out, "batch %d: %d files (%s .. %s)\n", i+1, len(b), filepath.Base(b[0]), filepath.Base(b[len(b)-1]))
	}
	return nil
}
