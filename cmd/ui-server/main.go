package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/learnup/learnup/internal/app"
	"github.com/learnup/learnup/internal/config"
	uiserver "github.com/learnup/learnup/internal/ui/server"
)

func main() {
	ctx, stop := app.SignalContext(context.Background(), os.Stderr)
	defer stop()

	listen := flag.String("listen", "", "address to serve the LearnUp UI (defaults to config server.addr+port)")
	apiBase := flag.String("api", "", "base URL of the users backend (defaults to config api.base_url)")
	templatesDir := flag.String("templates", "", "directory overriding the embedded html/template files")
	assetsDir := flag.String("assets", "", "directory holding styles.css, main.wasm and wasm_exec.js")
	wasm := flag.Bool("wasm", false, "bootstrap the WASM form controller on auth pages")
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := run(ctx, runFlags{
		listen:       *listen,
		apiBase:      *apiBase,
		templatesDir: *templatesDir,
		assetsDir:    *assetsDir,
		wasm:         *wasm,
		configPath:   *configPath,
		envFile:      *envFile,
	}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server error: %v", err)
	}
}

type runFlags struct {
	listen       string
	apiBase      string
	templatesDir string
	assetsDir    string
	wasm         bool
	configPath   string
	envFile      string
}

func run(ctx context.Context, f runFlags) error {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	logger, closer, err := app.NewLogger("ui-server", cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := uiserver.Options{
		Listen:       cfg.Server.Listen(),
		APIBase:      cfg.API.BaseURL,
		APITimeout:   cfg.API.Timeout(),
		TemplatesDir: cfg.App.Templates,
		AssetsDir:    cfg.App.Assets,
		EnableWASM:   f.wasm,
		Logger:       logger,
	}
	if f.listen != "" {
		opts.Listen = f.listen
	}
	if f.apiBase != "" {
		opts.APIBase = f.apiBase
	}
	if f.templatesDir != "" {
		opts.TemplatesDir = f.templatesDir
	}
	if f.assetsDir != "" {
		opts.AssetsDir = f.assetsDir
	}

	if err := uiserver.Run(ctx, opts); err != nil {
		return fmt.Errorf("ui server: %w", err)
	}
	return nil
}
