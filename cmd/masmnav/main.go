package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"masmnav/internal/config"
	"masmnav/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./masmnav.toml", "Path to config file")
	serve      = flag.Bool("serve", false, "Serve navigation queries over stdio")
	watch      = flag.Bool("watch", false, "Watch source trees and invalidate caches on change")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("masmnav v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui || *serve {
		// Stdout carries the UI or the protocol stream; logs go elsewhere.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./masmnav.toml" {
			if cfg, err = config.Load("./masmnav.example.toml"); err != nil {
				cfg = config.Default()
			}
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Observ.Enabled {
		startObservability(ctx, cfg)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	switch flag.Arg(0) {
	case "def":
		requireArg(1, "def mode requires a target: masmnav def <file>:<line>:<col>")
		exitOn(app.Definition(ctx, flag.Arg(1)))
		return
	case "hover":
		requireArg(1, "hover mode requires a target: masmnav hover <file>:<line>:<col>")
		exitOn(app.Hover(ctx, flag.Arg(1)))
		return
	case "history":
		limit := 20
		if flag.NArg() > 1 {
			if n, err := strconv.Atoi(flag.Arg(1)); err == nil {
				limit = n
			}
		}
		exitOn(app.ShowHistory(limit))
		return
	case "":
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want def, hover or history)\n", flag.Arg(0))
		os.Exit(1)
	}

	if !*serve && !*ui && !*watch {
		flag.Usage()
		os.Exit(1)
	}

	if *watch || *serve || *ui {
		if err := app.StartWatcher(); err != nil {
			slog.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
	}

	switch {
	case *serve:
		exitOn(app.Serve(ctx))
	case *ui:
		exitOn(app.RunUI(ctx))
	default:
		<-ctx.Done()
	}
}

func requireArg(n int, usage string) {
	if flag.NArg() <= n {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func startObservability(ctx context.Context, cfg *config.Config) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := fmt.Sprintf(":%d", cfg.Observ.Port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	if cfg.Observ.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, cfg.Observ.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing init failed", "error", err)
			return
		}
		go func() {
			<-ctx.Done()
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "masmnav", "masmnav.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "masmnav", "masmnav.log")
	}

	return "masmnav.log"
}
