// Command etl runs one extraction pass over a set of accident-record inputs
// and writes the canonical dataset artifacts.
//
// Input paths come from INPUT_PATHS or as command-line arguments. Exit code 0
// is a clean run, 1 a fatal failure, 2 a completed-but-degraded run.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/Karthi-M72/Flight-Crash-Analysis/internal/adapter/http"
	kafkaadapter "github.com/Karthi-M72/Flight-Crash-Analysis/internal/adapter/kafka"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/config"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/normalizer"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/observability"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/pipeline"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/scanner"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/writer"
)

const (
	exitSuccess  = 0
	exitFatal    = 1
	exitDegraded = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFatal
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	inputs := append(cfg.InputPaths, os.Args[1:]...)
	if len(inputs) == 0 {
		logger.Error("no input paths; set INPUT_PATHS or pass paths as arguments")
		return exitFatal
	}

	var overrides *normalizer.Overrides
	if cfg.AliasFile != "" {
		overrides, err = normalizer.LoadOverrides(cfg.AliasFile)
		if err != nil {
			logger.Error("failed to load alias file", "path", cfg.AliasFile, "error", err)
			return exitFatal
		}
		logger.Info("alias overrides loaded", "path", cfg.AliasFile)
	}

	var pub pipeline.Publisher
	if cfg.KafkaPublish {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		pub = kp
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(
		pipeline.Options{
			InputPaths:       inputs,
			Workers:          cfg.Workers,
			GridResolution:   cfg.GeoGridResolution,
			InvalidThreshold: cfg.InvalidFractionThreshold,
			StrictMode:       cfg.StrictMode,
			RunDeadline:      cfg.RunDeadline,
		},
		scanner.New(cfg.MaxArchiveDepth, cfg.MaxExtractedBytes, logger, metrics),
		normalizer.New(overrides, logger, metrics),
		writer.New(cfg.OutputDir, logger),
		pub,
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	report, runErr := p.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "run_id", report.RunID, "error", runErr)
		return exitFatal
	}
	if report.Outcome == domain.OutcomeDegraded {
		return exitDegraded
	}
	return exitSuccess
}
