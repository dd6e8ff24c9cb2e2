package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/liavyona/globalvax/pkg"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "globalvax",
		Short: "Compare OWID and WHO COVID-19 vaccination figures",
		Long: `globalvax downloads the OWID vaccination time series, the WHO vaccination
snapshot and the PTC source classification sheet, merges them per country and
writes the merged table and a discrepancy summary as timestamped CSV files,
optionally uploading both to S3.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			configureLogger(cfg.LogLevel, cfg.LogFormat)
			return execute(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("temp-dir", "/tmp/public-cache", "Local temp dir for snapshots")
	flags.String("s3-bucket", "pandemic-tracking-collective-data", "S3 bucket name")
	flags.String("s3-subfolder", "globalvax", "Name of subfolder on S3 bucket to upload files to")
	flags.Bool("push-to-s3", false, "Push snapshots to S3")
	flags.Bool("print", false, "Print the discrepancy summary as YAML")
	flags.String("config", "", "Config file (default .globalvax.yaml in . or $HOME)")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "auto", "Log format (json, console, auto)")
	return cmd
}

func newJob(ctx context.Context, cfg *Config) (*pkg.Job, error) {
	logger := &log.Logger
	fetcher := pkg.NewFetcher(&http.Client{Timeout: 5 * time.Minute}, logger)
	jobConfig := pkg.JobConfig{
		Merger:  pkg.NewMerger(pkg.DefaultApiMetadata(), fetcher, logger),
		TempDir: cfg.TempDir,
		Logger:  logger,
	}
	if cfg.PushToS3 {
		backup, err := pkg.NewS3Backup(ctx, cfg.S3Bucket, cfg.S3Subfolder, logger)
		if err != nil {
			log.Err(err).Str("bucket", cfg.S3Bucket).Msg("Failed to set up S3 session")
			return nil, err
		}
		jobConfig.Uploader = backup
	}
	if cfg.Arango.Enabled() {
		store, err := pkg.ConnectToArango(cfg.Arango)
		if err != nil {
			log.Err(err).Str("endpoint", cfg.Arango.Endpoint).Msg("Error while connecting to arango db")
			return nil, err
		}
		jobConfig.Store = store
	}
	return pkg.NewJob(jobConfig)
}

func execute(ctx context.Context, cfg *Config, out io.Writer) error {
	job, err := newJob(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := job.Run(ctx)
	if err != nil {
		log.Err(err).Msg("Comparison run failed")
		return errors.New("comparison run failed")
	}
	log.Info().Str("merged", result.MergedPath).Str("comparison", result.ComparisonPath).
		Int("uploaded", len(result.Uploaded)).Msg("Comparison run finished")
	if cfg.Print {
		encoded, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed encoding summary: %w", err)
		}
		if _, err := out.Write(encoded); err != nil {
			return err
		}
	}
	return nil
}

// handleScheduledRun is the Lambda entry point. Flags are not available there, so the
// configuration comes from the environment and config file alone.
func handleScheduledRun(ctx context.Context) error {
	cfg, err := LoadConfig(newRootCmd().Flags())
	if err != nil {
		return err
	}
	configureLogger(cfg.LogLevel, "json")
	return execute(ctx, cfg, io.Discard)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handleScheduledRun)
		return
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
