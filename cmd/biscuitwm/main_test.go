package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"unknown flag", []string{"-bogus"}, 2},
		{"positional argument", []string{"extra"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Fatalf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	ctx := context.Background()
	out, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	if !newLogger(out, true).Enabled(ctx, slog.LevelDebug) {
		t.Fatal("debug logger drops debug records")
	}
	if newLogger(out, false).Enabled(ctx, slog.LevelDebug) {
		t.Fatal("default logger emits debug records")
	}
}

func TestNewLoggerWritesJSONOffTerminal(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	newLogger(out, false).Info("hello", "window", "0x1")

	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{") || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log output = %q, want a JSON record", data)
	}
}
