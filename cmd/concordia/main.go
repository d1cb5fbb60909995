package main

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/app"
	"github.com/ternarybob/concordia/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	common.LoadVersionFromFile()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "report":
		runReport(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version", "-version", "--version", "-v":
		fmt.Printf("Concordia version %s\n", common.GetFullVersion())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Concordia - strategic/action plan synchronization engine

Usage:
  concordia analyze -strategic <path> -action <path> [flags]
  concordia ask <question...> [flags]
  concordia report [-run <run-id>] [flags]
  concordia watch -strategic <path> -action <path> [flags]
  concordia version

Common flags:
  -config <path>   Configuration file (repeatable, later files override earlier)

Run 'concordia <command> -h' for command flags.
`)
}

// setup loads configuration, initializes logging, and wires the app.
// Startup order: config (defaults -> files -> env), logger, banner, app.
func setup(configFiles configPaths) *app.App {
	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("concordia.toml"); err == nil {
			configFiles = append(configFiles, "concordia.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	return application
}
