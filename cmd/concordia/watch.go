package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/concordia/internal/services/pipeline"
	"github.com/ternarybob/concordia/internal/services/scheduler"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var configFiles configPaths
	fs.Var(&configFiles, "config", "Configuration file path (repeatable)")
	strategicPath := fs.String("strategic", "", "Path to the strategic plan (JSON or markdown)")
	actionPath := fs.String("action", "", "Path to the action plan (JSON or markdown)")
	_ = fs.Parse(args)

	if *strategicPath == "" || *actionPath == "" {
		fmt.Fprintln(os.Stderr, "watch requires -strategic and -action")
		fs.Usage()
		os.Exit(1)
	}

	application := setup(configFiles)
	defer application.Close()

	logger := application.Logger
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func(ctx context.Context) error {
		// The content-addressed cache makes unchanged inputs cheap:
		// only a real edit triggers a full re-analysis
		result, err := application.Analyze(ctx, *strategicPath, *actionPath, pipeline.RunOptions{})
		if err != nil {
			return err
		}
		logger.Info().
			Str("run_id", result.RunID).
			Float64("overall_score", result.OverallScore).
			Msg("Watch analysis complete")
		return nil
	}

	// Run once up front so the watch starts from a known state
	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Initial analysis failed")
		os.Exit(1)
	}

	sched, err := scheduler.NewService(&application.Config.Schedule, run, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scheduler")
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutting down watch mode")

	cancel()
	sched.Stop()
}
