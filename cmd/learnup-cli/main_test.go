package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/learnup/learnup/internal/ui/model"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw     string
		want    model.AuthKind
		wantErr bool
	}{
		{raw: "signup", want: model.AuthSignup},
		{raw: "login", want: model.AuthLogin},
		{raw: "logout", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseKind(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseKind(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"logout"}},
		{name: "two commands", args: []string{"signup", "login"}},
		{name: "unknown flag", args: []string{"-nope", "signup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != 2 {
				t.Fatalf("expected exit code 2, got %d", code)
			}
			if !strings.Contains(stderr.String(), "usage: learnup-cli") {
				t.Fatalf("expected usage on stderr, got %q", stderr.String())
			}
		})
	}
}
