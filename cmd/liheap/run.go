package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/infrastructure"
	"liheapcli/internal/operations"
	"liheapcli/pkg/contracts"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		continueOnError bool
		manifest        string
		metrics         string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage in dependency order",
		Long: `run executes normalize, aggregate, join-acs, unemployment, zip-county and
final in order. A failed stage skips the stages that depend on it. The run
manifest and the metrics textfile are written when the run ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			flags := []pathFlag{
				{"manifest", "", func(c *config.Config) *string { return &c.Operations.ManifestFile }},
				{"metrics-file", "", func(c *config.Config) *string { return &c.Telemetry.MetricsFile }},
			}
			if err := applyPathFlags(cfg, flags, []string{manifest, metrics}); err != nil {
				return err
			}
			return runPipelineWith(cmd, cfg, "", continueOnError)
		},
	}

	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep running stages that do not depend on a failed one")
	cmd.Flags().StringVar(&manifest, "manifest", "", "run manifest JSON file")
	cmd.Flags().StringVar(&metrics, "metrics-file", "", "Prometheus metrics textfile")
	return cmd
}

// runPipeline executes one stage, or every stage when stepID is empty
func runPipeline(cmd *cobra.Command, cfg *config.Config, stepID string) error {
	return runPipelineWith(cmd, cfg, stepID, false)
}

func runPipelineWith(cmd *cobra.Command, cfg *config.Config, stepID string, continueOnError bool) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	info := contracts.GetVersionInfo()
	logger.Info("liheap_start",
		slog.String("version", info.Version),
		slog.String("commit", info.GitCommit),
		slog.String("data_format", info.DataFormat),
		slog.String("base_dir", cfg.Paths.BaseDir))
	cfg.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Warn("telemetry_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	registry, err := operations.NewPipelineRegistry(cfg, logger, &operations.StageOptions{Metrics: telemetry.Metrics})
	if err != nil {
		return err
	}
	opConfig := operations.FromAppConfig(cfg.Operations)
	opConfig.ContinueOnError = continueOnError
	manager := operations.NewManager(registry, opConfig,
		operations.NewOperationTracer(telemetry.Tracer, telemetry.Metrics), logger)

	resp, runErr := manager.Execute(cmd.Context(), operations.OperationRequest{Step: stepID})

	if stepID == "" {
		if err := telemetry.WriteMetrics(cfg.Telemetry.MetricsFile); err != nil {
			logger.Error("metrics_write_failed", slog.String("error", err.Error()))
		}
	}
	if resp != nil {
		printResponse(cmd, resp)
	}
	return runErr
}

// printResponse writes one line per stage and the run outcome
func printResponse(cmd *cobra.Command, resp *operations.OperationResponse) {
	out := cmd.OutOrStdout()
	for _, id := range operations.StageOrder {
		step, ok := resp.Steps[id]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-13s %-10s %s", id, step.GetStatus(), step.Duration().Round(time.Millisecond))
		if step.Error != nil {
			line += "  " + step.Error.Error()
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "run %s %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
}
