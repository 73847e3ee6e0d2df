package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"masmnav/internal/config"
	derrors "masmnav/internal/core/errors"
	"masmnav/internal/data/history"
	"masmnav/internal/index"
	"masmnav/internal/locator"
	"masmnav/internal/nav"
	"masmnav/internal/registry"
	"masmnav/internal/resolver"
	"masmnav/internal/server"
	"masmnav/internal/watcher"
	"masmnav/internal/workspace"
)

type App struct {
	Config  *config.Config
	Service *nav.Service

	store   *history.Store
	watcher *watcher.Watcher
}

func NewApp(cfg *config.Config) (*App, error) {
	ix := index.NewIndexer()
	namespaces := workspace.NewDirectory()
	res := resolver.New(namespaces, registry.NewLocator(cfg.Registry.Dir))
	loc := locator.New(ix, res)

	a := &App{Config: cfg}

	var rec nav.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		rec = store
	}

	a.Service = nav.NewService(ix, res, loc, namespaces, rec)
	return a, nil
}

// query is one parsed <file>:<line>:<col> target with the cursor line's text
// already loaded. Line and column are 1-based on the command line.
type query struct {
	file string
	text string
	col  int
}

func parseTarget(target string) (query, error) {
	parts := strings.Split(target, ":")
	if len(parts) < 3 {
		return query{}, derrors.New(derrors.CodeValidationError, "target must be <file>:<line>:<col>")
	}

	col, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return query{}, derrors.New(derrors.CodeValidationError, "column is not a number: "+parts[len(parts)-1])
	}
	line, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return query{}, derrors.New(derrors.CodeValidationError, "line is not a number: "+parts[len(parts)-2])
	}
	if line < 1 || col < 1 {
		return query{}, derrors.New(derrors.CodeValidationError, "line and column are 1-based")
	}
	file := strings.Join(parts[:len(parts)-2], ":")

	data, err := os.ReadFile(file)
	if err != nil {
		return query{}, derrors.Wrap(err, derrors.CodeReadError, "read target file")
	}
	lines := strings.Split(string(data), "\n")
	if line > len(lines) {
		return query{}, derrors.New(derrors.CodeValidationError, fmt.Sprintf("file has only %d lines", len(lines)))
	}

	return query{file: file, text: lines[line-1], col: col - 1}, nil
}

// Definition resolves a <file>:<line>:<col> target and prints the result.
func (a *App) Definition(ctx context.Context, target string) error {
	q, err := parseTarget(target)
	if err != nil {
		return err
	}

	loc, ok := a.Service.Definition(ctx, q.file, q.text, q.col)
	if !ok {
		return derrors.New(derrors.CodeNotFound, "no definition found")
	}
	fmt.Printf("%s:%d:%d\n", loc.File, loc.Line+1, loc.Column+1)
	return nil
}

func (a *App) Hover(ctx context.Context, target string) error {
	q, err := parseTarget(target)
	if err != nil {
		return err
	}

	text, ok := a.Service.Hover(ctx, q.file, q.text, q.col)
	if !ok {
		return derrors.New(derrors.CodeNotFound, "no documentation found")
	}
	fmt.Println(text)
	return nil
}

func (a *App) ShowHistory(limit int) error {
	if a.store == nil {
		return derrors.New(derrors.CodeValidationError, "history is disabled in the config")
	}

	entries, err := a.store.LoadRecent(limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %-10s %-20s %-8s %dms  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Op, e.Word, e.Outcome, e.DurationMs, e.File)
	}
	return nil
}

func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Watch(a.Config.WatchPaths)
}

func (a *App) HandleChanges(paths []string) {
	for _, path := range paths {
		slog.Info("file changed", "path", path)
		a.Service.OnFileChanged(path)
	}
}

func (a *App) Serve(ctx context.Context) error {
	return server.New(a.Service, a.Config.Server).Serve(ctx)
}

func (a *App) RunUI(ctx context.Context) error {
	p := tea.NewProgram(initialModel(ctx, a.Service), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a *App) Close() error {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("watcher close failed", "error", err)
		}
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
