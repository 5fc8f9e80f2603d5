package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/stub"
)

func stubCommand() *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Serve a fake backend with demo data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8000", Usage: "Listen address"},
			&cli.IntFlag{Name: "posts", Value: 250, Usage: "Number of demo posts"},
			&cli.IntFlag{Name: "chunk", Usage: "Split the answer stream into chunks of this many bytes"},
			&cli.DurationFlag{Name: "delay", Value: 50 * time.Millisecond, Usage: "Pause between stream chunks"},
		},
		Action: runStub,
	}
}

func runStub(c *cli.Context) error {
	f := stub.Demo(c.Int("posts"))
	f.ChunkSize = c.Int("chunk")
	f.ChunkDelay = c.Duration("delay")

	srv := stub.New(f).WithRequestLog()
	ctx, stop := signalContext(c)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(c.String("addr")) }()
	logging.Info("stub backend listening", "addr", c.String("addr"), "posts", c.Int("posts"))
	fmt.Printf("stub backend on http://%s\n", c.String("addr"))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
