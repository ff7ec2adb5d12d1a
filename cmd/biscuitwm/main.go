package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/biscuitwm/internal/config"
	"github.com/1broseidon/biscuitwm/internal/corners"
	"github.com/1broseidon/biscuitwm/internal/platform"
	"github.com/1broseidon/biscuitwm/internal/spawn"
	"github.com/1broseidon/biscuitwm/internal/statusbar"
	"github.com/1broseidon/biscuitwm/internal/wm"
	"github.com/1broseidon/biscuitwm/internal/x11"
	"golang.org/x/term"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: biscuitwm [-config PATH] [-display NAME]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "A minimal floating window manager for X11.")
	fmt.Fprintln(w, "")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func run(args []string) int {
	fs := flag.NewFlagSet("biscuitwm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "configuration file (default ~/.config/biscuitwm/config.yaml, then "+config.SystemConfigPath+")")
	display := fs.String("display", "", "X display to manage (default $DISPLAY)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			printUsage(os.Stdout, fs)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr, fs)
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n\n", fs.Args())
		printUsage(os.Stderr, fs)
		return 2
	}

	res, cfgErr := config.LoadOrDefault(*configPath)
	cfg := res.Config
	logger := newLogger(os.Stderr, cfg.Debug)

	switch {
	case errors.Is(cfgErr, config.ErrMissing) && *configPath == "":
		logger.Info("no configuration file found, using defaults")
	case cfgErr != nil:
		logger.Warn("configuration rejected, using defaults", "error", cfgErr)
	default:
		logger.Info("configuration loaded", "file", res.File)
	}

	backend, err := platform.NewLinuxBackendFromDisplay(*display)
	if err != nil {
		logger.Error("cannot open display", "display", *display, "error", err)
		return 1
	}
	defer backend.Close()

	conn := backend.Connection()
	if _, err := conn.AnnounceSession(statusbar.SessionName); err != nil {
		logger.Warn("failed to announce window manager", "error", err)
	}

	bar := newStatusBar(conn, cfg, logger)
	defer bar.Close()

	var mask wm.CornerMask
	if cfg.Corners.Enabled {
		m, err := corners.New(conn, logger.With("component", "corners"))
		if err != nil {
			logger.Warn("corner mask disabled", "error", err)
		} else {
			mask = m
		}
	}

	manager := wm.New(backend, wm.Options{
		Config:  cfg,
		Bar:     bar,
		Corners: mask,
		Spawner: spawn.New(logger.With("component", "spawn")),
		Logger:  logger,
	})
	if err := manager.Setup(); err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = manager.Run(ctx)
	manager.Shutdown()
	if err != nil {
		logger.Error("window manager stopped", "error", err)
		return 1
	}
	logger.Info("session ended")
	return 0
}

// closableBar is a status bar that owns server resources.
type closableBar interface {
	wm.StatusBar
	Close()
}

func newStatusBar(conn *x11.Connection, cfg *config.Config, logger *slog.Logger) closableBar {
	if !cfg.StatusBar.Enabled {
		return statusbar.NewHeadless()
	}
	bar, err := statusbar.New(conn, cfg.StatusBar, logger.With("component", "statusbar"))
	if err != nil {
		logger.Warn("status bar disabled", "error", err)
		return statusbar.NewHeadless()
	}
	return bar
}

// newLogger writes text records to a terminal and JSON records otherwise,
// as when a display manager redirects stderr to a session log.
func newLogger(out *os.File, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if term.IsTerminal(int(out.Fd())) {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}
