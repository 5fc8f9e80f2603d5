package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/chat"
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/render"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a question and stream the answer",
		ArgsUsage: "<question>",
		Action:    runAsk,
	}
}

func runAsk(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("ask: question required")
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	session := chat.NewSession(client, nil)
	printed := 0
	err = session.Ask(ctx, question, func(t model.Turn) {
		if t.Err {
			return
		}
		// Content only grows; print the new suffix.
		if len(t.Content) > printed {
			fmt.Print(t.Content[printed:])
			printed = len(t.Content)
		}
	})
	fmt.Println()

	last, ok := session.Conversation().Last()
	if ok && last.Err {
		fmt.Println(last.Content)
	}
	if ok && len(last.Citations) > 0 {
		fmt.Println()
		fmt.Println("参照:")
		for _, cit := range last.Citations {
			fmt.Printf("  No.%d %s %s\n", cit.SourcePostNo, cit.Author, render.Timestamp(cit.Timestamp))
			fmt.Printf("    %s\n", render.Truncate(render.OneLine(cit.ContentExcerpt), 100))
		}
	}
	return err
}
