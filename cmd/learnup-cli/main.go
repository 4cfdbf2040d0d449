package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/learnup/learnup/internal/app"
	"github.com/learnup/learnup/internal/cli"
	"github.com/learnup/learnup/internal/config"
	"github.com/learnup/learnup/internal/ui/api"
	"github.com/learnup/learnup/internal/ui/model"
)

const usage = `usage: learnup-cli [flags] signup|login

flags:
`

func main() {
	ctx, stop := app.SignalContext(context.Background(), os.Stderr)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("learnup-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiBase := fs.String("api", "", "base URL of the users backend (defaults to config api.base_url)")
	configPath := fs.String("config", "", "path to a JSON or YAML config file")
	attempts := fs.Int("attempts", 5, "how many times the form may be submitted")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	kind, err := parseKind(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	// Entries go to stderr so they never interleave with the prompts.
	logger, closer, err := app.NewLogger("learnup-cli", cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closer.Close()

	base := cfg.API.BaseURL
	if *apiBase != "" {
		base = *apiBase
	}
	client, err := api.New(base, api.WithTimeout(cfg.API.Timeout()), api.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	runner, err := cli.NewRunner(cli.NewSurveyDriver(stdout), client,
		cli.WithMaxAttempts(*attempts),
		cli.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch err := runner.Run(ctx, kind); {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrAborted), errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "aborted")
		return 130
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}

func parseKind(raw string) (model.AuthKind, error) {
	switch raw {
	case "signup":
		return model.AuthSignup, nil
	case "login":
		return model.AuthLogin, nil
	default:
		return "", fmt.Errorf("unknown command %q", raw)
	}
}
