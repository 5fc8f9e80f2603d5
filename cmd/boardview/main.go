// Command boardview is the terminal front-end for the bulletin board
// archive: question answering, search, oekaki gallery and ID ranking.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/boardview/internal/api"
	"github.com/abelbrown/boardview/internal/config"
	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/ui"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config.toml (default ~/.boardview/config.toml)")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "boardview: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// The TUI owns the terminal: human logs go to a file.
	if err := logging.InitFile(cfg.Log.Dir, cfg.Log.Level); err != nil {
		return err
	}
	defer logging.Close()

	// Event log (JSONL) plus an in-memory ring for the debug overlay.
	evFile, err := os.OpenFile(cfg.EventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer evFile.Close()
	events := otel.NewLogger(evFile)
	defer events.Close()
	ring := otel.NewRingBuffer(512)
	events.SetRingBuffer(ring)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(api.Options{
		BaseURL:           cfg.API.BaseURL,
		ImageBaseURL:      cfg.API.ImageBaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	logging.Info("starting", "api", cfg.API.BaseURL, "session", events.SessionID())

	app := ui.NewApp(ui.Options{
		Backend:        client,
		Log:            events,
		Ring:           ring,
		StatusInterval: cfg.Status.Interval,
		WebBaseURL:     cfg.Web.BaseURL,
		Ctx:            ctx,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		logging.Error("program exited", "err", err)
		return err
	}
	logging.Info("stopped", "dropped_events", events.Dropped())
	return nil
}
