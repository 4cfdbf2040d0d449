package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/learnup/learnup/internal/app"
	"github.com/learnup/learnup/internal/config"
	"github.com/learnup/learnup/internal/devapi"
)

func main() {
	ctx, stop := app.SignalContext(context.Background(), os.Stderr)
	defer stop()

	listen := flag.String("listen", "", "address to serve the development API (defaults to config dev_api.server)")
	usersFile := flag.String("users", "", "JSON file persisting accounts; empty keeps them in memory")
	origins := flag.String("origins", "", "comma separated UI origins allowed to send credentials")
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the config")
	flag.Parse()

	if err := run(ctx, *listen, *usersFile, *origins, *configPath, *envFile); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("dev api error: %v", err)
	}
}

func run(ctx context.Context, listen, usersFile, origins, configPath, envFile string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closer, err := app.NewLogger("dev-api", cfg.Logging, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	if usersFile == "" {
		usersFile = cfg.DevAPI.UsersFile
	}
	store, err := devapi.NewStore(usersFile, 0)
	if err != nil {
		return fmt.Errorf("open users: %w", err)
	}
	if cfg.DevAPI.SessionSecret == "" {
		logger.Warn("general", "no session secret configured; sessions end on restart", nil)
	}
	sessions, err := devapi.NewSessions(cfg.DevAPI.SessionSecret, cfg.DevAPI.SessionTTL(), cfg.DevAPI.SessionCookie)
	if err != nil {
		return err
	}

	opts := devapi.Options{
		Listen:         cfg.DevAPI.Server.Listen(),
		AllowedOrigins: cfg.DevAPI.AllowedOrigins,
		Store:          store,
		Sessions:       sessions,
		Logger:         logger,
	}
	if listen != "" {
		opts.Listen = listen
	}
	if origins != "" {
		opts.AllowedOrigins = splitList(origins)
	}
	return devapi.Run(ctx, opts)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
