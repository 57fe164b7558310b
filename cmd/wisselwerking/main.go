package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wisselwerking/indeler/internal/config"
	"github.com/wisselwerking/indeler/internal/operator"
	"github.com/wisselwerking/indeler/internal/service"
)

type options struct {
	capacityFile     string
	historyExportDir string
	logLevel         string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "wisselwerking <enrollments.csv> <history-root>",
		Short:         "Assign enrollments to choices and write the notifications",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&opts.capacityFile, "capacities", "", "Capacity file (overrides CAPACITY_FILE)")
	cmd.Flags().StringVar(&opts.historyExportDir, "history-export", "", "Write history statistics into this directory")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	return cmd
}

func run(ctx context.Context, opts options, enrollmentPath, historyRoot string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.capacityFile != "" {
		cfg.CapacityFile = opts.capacityFile
	}
	if opts.historyExportDir != "" {
		cfg.HistoryExportDir = opts.historyExportDir
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	runID := uuid.NewString()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Str("service", "wisselwerking").Str("run_id", runID).
		Logger()

	svc := &service.ProcessingService{
		FS:       afero.NewOsFs(),
		Config:   cfg,
		Operator: operator.NewConsole(os.Stdin, os.Stdout),
		Logger:   logger,
		RunID:    runID,
	}
	summary, err := svc.Run(ctx, enrollmentPath, historyRoot)
	if err != nil {
		return err
	}
	logger.Info().
		Int("enrollments", summary.Report.Enrollments).
		Int("unassigned", len(summary.Report.Unassigned)).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("cycle processed")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, operator.ErrAborted) || errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "aborted, capacities saved")
		os.Exit(130)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
