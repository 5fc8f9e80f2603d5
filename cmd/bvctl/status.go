package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/status"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the index status",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Poll until interrupted"},
			&cli.DurationFlag{Name: "interval", Usage: "Poll interval for --watch (default status.interval)"},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Stop --watch after this many polls (0 = until interrupted)"},
			&cli.BoolFlag{Name: "json", Usage: "Print the raw response"},
		},
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	if !c.Bool("watch") {
		st, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if c.Bool("json") {
			return printJSON(st)
		}
		fmt.Println(status.Describe(st))
		return nil
	}

	interval := c.Duration("interval")
	if interval <= 0 {
		interval = cfg.Status.Interval
	}
	watchStatus(ctx, client.Status, interval, c.Int("count"), os.Stdout)
	return nil
}

// watchStatus prints one line per poll until ctx is cancelled or count
// polls were printed.
func watchStatus(ctx context.Context, fetch status.FetchFunc, interval time.Duration, count int, w io.Writer) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := 0
	p := status.NewPoller(interval, nil)
	p.Start(ctx, fetch, func(r status.Result) {
		fmt.Fprintf(w, "%s  %s\n", r.At.Format(time.TimeOnly), status.DescribeResult(r))
		n++
		if count > 0 && n >= count {
			cancel()
		}
	})
	p.Wait()
}
