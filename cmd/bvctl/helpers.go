package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/api"
	"github.com/abelbrown/boardview/internal/config"
)

// loadConfig returns the config resolved in setup.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if cfg, ok := c.App.Metadata["config"].(*config.Config); ok {
		return cfg, nil
	}
	if err, ok := c.App.Metadata["config_err"].(error); ok {
		return nil, err
	}
	return nil, errors.New("config not loaded")
}

// newClient builds an API client from the config.
func newClient(c *cli.Context) (*api.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return api.New(api.Options{
		BaseURL:           cfg.API.BaseURL,
		ImageBaseURL:      cfg.API.ImageBaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	}), nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
