// Package app holds the start-up plumbing shared by the LearnUp binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/learnup/learnup/internal/config"
	"github.com/learnup/learnup/logging"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the logger for component. Entries go to stdout and, when
// cfg.Dir is set, to a rotating <component>.log in that directory. The
// returned closer releases the log file.
func NewLogger(component string, cfg config.LoggingConfig, stdout io.Writer) (*logging.Logger, io.Closer, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Dir == "" {
		return logging.New(component, level, stdout), nopCloser{}, nil
	}
	file, err := logging.NewFileWriter(cfg.Dir, component+".log", cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("configure logging: %w", err)
	}
	return logging.New(component, level, stdout, file), file, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. A second
// signal exits the process immediately.
func SignalContext(parent context.Context, stderr io.Writer) (context.Context, func()) {
	if stderr == nil {
		stderr = os.Stderr
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
		case <-done:
			return
		}
		cancel()
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "second interrupt received, forcing shutdown")
			os.Exit(1)
		case <-done:
		}
	}()
	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
			cancel()
		})
	}
}
