// Command bvctl is the scriptable CLI for boardview: it asks questions,
// searches, prints rankings and index status, serves the stub backend,
// and reads the TUI's event log.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/config"
	"github.com/abelbrown/boardview/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "bvctl",
		Usage: "boardview command line client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.toml",
				EnvVars: []string{"BOARDVIEW_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "api",
				Usage: "Override api.base_url",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, error",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			askCommand(),
			statusCommand(),
			searchCommand(),
			rankingCommand(),
			eventsCommand(),
			stubCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "bvctl: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config for every command and logs to stderr.
// A broken config is reported by the commands that need it.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	level := c.String("log-level")
	if err == nil {
		if v := c.String("api"); v != "" {
			cfg.API.BaseURL = v
			cfg.API.ImageBaseURL = v + "/images"
		}
		if level == "" {
			level = cfg.Log.Level
		}
		c.App.Metadata = map[string]interface{}{"config": cfg}
	} else {
		c.App.Metadata = map[string]interface{}{"config_err": err}
	}
	if level == "" {
		level = "warn"
	}
	logging.Init(os.Stderr, level)
	return nil
}
