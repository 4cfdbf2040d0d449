package main

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func shell(t *testing.T, name, dir, script string, env ...string) procConfig {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return procConfig{Name: name, Args: []string{"sh", "-c", script}, Dir: dir, Env: env}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunBuildStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	steps := []procConfig{
		shell(t, "compile", dir, "exit 3"),
		shell(t, "after", dir, "touch after"),
	}
	err := runBuild(context.Background(), steps, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "compile") {
		t.Fatalf("expected error naming the failed step, got %v", err)
	}
	if exists(filepath.Join(dir, "after")) {
		t.Fatal("later build step ran after a failure")
	}
}

func TestRunBuildPassesEnv(t *testing.T) {
	dir := t.TempDir()
	steps := []procConfig{shell(t, "env", dir, `test "$LEARNUP_TARGET" = wasm`, "LEARNUP_TARGET=wasm")}
	if err := runBuild(context.Background(), steps, io.Discard, io.Discard); err != nil {
		t.Fatalf("expected extra env to reach the step: %v", err)
	}
}

func TestRunPlanBuildsBeforeServices(t *testing.T) {
	dir := t.TempDir()
	plan := devPlan{
		Build:    []procConfig{shell(t, "build", dir, "exit 1")},
		Services: []procConfig{shell(t, "ui", dir, "touch started; sleep 5")},
	}
	if err := runPlan(context.Background(), plan, io.Discard, io.Discard); err == nil {
		t.Fatal("expected build failure")
	}
	if exists(filepath.Join(dir, "started")) {
		t.Fatal("service started although the build failed")
	}

	// The service only sees the artifact if the build finished first.
	plan = devPlan{
		Build:    []procConfig{shell(t, "build", dir, "sleep 0.2; touch main.wasm")},
		Services: []procConfig{shell(t, "ui", dir, "test -f main.wasm && exit 7")},
	}
	err := runPlan(context.Background(), plan, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "exit status 7") {
		t.Fatalf("expected service to observe the built artifact, got %v", err)
	}
}

func TestRunPlanRequiresServices(t *testing.T) {
	if err := runPlan(context.Background(), devPlan{}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error without services")
	}
}

func TestRunServicesReturnsFirstFailure(t *testing.T) {
	dir := t.TempDir()
	services := []procConfig{
		shell(t, "dev-api", dir, "sleep 30"),
		shell(t, "ui", dir, "exit 1"),
	}
	start := time.Now()
	err := runServices(context.Background(), services, io.Discard, io.Discard)
	if err == nil || !strings.HasPrefix(err.Error(), "ui:") {
		t.Fatalf("expected ui failure, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("runServices waited for the long-running service")
	}
}

func TestRunServicesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	services := []procConfig{shell(t, "dev-api", t.TempDir(), "sleep 30")}
	if err := runServices(ctx, services, io.Discard, io.Discard); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
