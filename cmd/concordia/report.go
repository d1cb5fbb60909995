package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/concordia/internal/models"
)

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var configFiles configPaths
	fs.Var(&configFiles, "config", "Configuration file path (repeatable)")
	runID := fs.String("run", "", "Run id to export (default: latest)")
	_ = fs.Parse(args)

	application := setup(configFiles)
	defer application.Close()

	storage := application.Storage.ResultStorage()

	var result *models.FinalSynchronizationResult
	var err error
	if *runID != "" {
		result, err = storage.GetResult(*runID)
	} else {
		result, err = storage.GetLatestResult()
	}
	if err != nil {
		application.Logger.Fatal().Str("run_id", *runID).Err(err).Msg("No result to export")
		os.Exit(1)
	}

	path, err := application.Report.Generate(result)
	if err != nil {
		application.Logger.Fatal().Err(err).Msg("Report export failed")
		os.Exit(1)
	}

	fmt.Printf("Report written to %s\n", path)
}
