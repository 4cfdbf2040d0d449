package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// shutdownGrace bounds how long services get to exit after an interrupt.
const shutdownGrace = 2 * time.Second

type procConfig struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// devPlan is what the dev runner starts: build steps run one at a time to
// completion, then services run together until one fails or ctx ends.
type devPlan struct {
	Build    []procConfig
	Services []procConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan := devPlan{
		Build: []procConfig{
			{
				Name: "build-ui-wasm",
				Args: []string{"go", "build", "-o", "ui/main.wasm", "./cmd/ui-wasm"},
				Env:  []string{"GOOS=js", "GOARCH=wasm"},
			},
		},
		Services: []procConfig{
			{
				Name: "dev-api",
				Args: []string{
					"go", "run", "./cmd/dev-api",
					"-listen", "127.0.0.1:8000",
					"-users", "data/users.json",
				},
			},
			{
				Name: "ui",
				Args: []string{
					"go", "run", "./cmd/ui-server",
					"-listen", "127.0.0.1:4173",
					"-api", "http://127.0.0.1:8000",
					"-assets", "ui",
					"-wasm",
				},
			},
		},
	}

	if err := runPlan(ctx, plan, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "learnup exited with error: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, plan devPlan, stdout, stderr io.Writer) error {
	if len(plan.Services) == 0 {
		return errors.New("no services configured")
	}
	if err := runBuild(ctx, plan.Build, stdout, stderr); err != nil {
		return err
	}
	return runServices(ctx, plan.Services, stdout, stderr)
}

func (p procConfig) command(ctx context.Context, stdout, stderr io.Writer) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Args[0], p.Args[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}
	return cmd
}

// runBuild runs steps in order and stops at the first failure.
func runBuild(ctx context.Context, steps []procConfig, stdout, stderr io.Writer) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.command(ctx, stdout, stderr).Run(); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

// runServices starts every service and returns the first unexpected exit,
// stopping the others. A service exiting after ctx is cancelled is not an
// error.
func runServices(ctx context.Context, services []procConfig, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(services))

	for _, svc := range services {
		cmd := svc.command(ctx, stdout, stderr)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%s start: %w", svc.Name, err)
		}
		wg.Add(1)
		go func(name string, cmd *exec.Cmd) {
			defer wg.Done()
			err := cmd.Wait()
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				err = errors.New("exited")
			}
			errCh <- fmt.Errorf("%s: %w", name, err)
		}(svc.Name, cmd)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(shutdownGrace):
		}
		return nil
	case err := <-errCh:
		return err
	}
}
