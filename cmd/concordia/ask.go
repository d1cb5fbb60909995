package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	var configFiles configPaths
	fs.Var(&configFiles, "config", "Configuration file path (repeatable)")
	_ = fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "ask requires a question, e.g.: concordia ask which objectives lack support")
		os.Exit(1)
	}

	application := setup(configFiles)
	defer application.Close()

	answer, err := application.Ask(context.Background(), question)
	if err != nil {
		application.Logger.Fatal().Err(err).Msg("Question could not be answered")
		os.Exit(1)
	}

	fmt.Println(answer)
}
