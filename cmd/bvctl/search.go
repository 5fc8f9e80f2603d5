package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/render"
	"github.com/abelbrown/boardview/internal/search"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "Poster ID"},
		&cli.StringFlag{Name: "text", Usage: "Substring of the post body"},
		&cli.StringFlag{Name: "name", Usage: "Substring of name and trip"},
		&cli.StringFlag{Name: "since", Usage: "First day, YYYY-MM-DD"},
		&cli.StringFlag{Name: "until", Usage: "Last day, YYYY-MM-DD"},
	}
}

func searchCommand() *cli.Command {
	flags := append(filterFlags(),
		&cli.BoolFlag{Name: "asc", Usage: "Oldest first"},
		&cli.BoolFlag{Name: "oekaki", Usage: "Only posts with an image"},
		&cli.BoolFlag{Name: "all", Usage: "Follow the cursor through every page"},
		&cli.IntFlag{Name: "limit", Value: 1000, Usage: "Row cap for --all (0 = unlimited)"},
		&cli.BoolFlag{Name: "json", Usage: "Print rows as JSON"},
	)
	return &cli.Command{
		Name:   "search",
		Usage:  "Search posts",
		Flags:  flags,
		Action: runSearch,
	}
}

func filtersFromFlags(c *cli.Context) model.Filters {
	return model.Filters{
		ID:          c.String("id"),
		MainText:    c.String("text"),
		NameAndTrip: c.String("name"),
		Ascending:   c.Bool("asc"),
		Since:       c.String("since"),
		Until:       c.String("until"),
	}
}

func runSearch(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	f := filtersFromFlags(c)
	pager := search.NewPager(client, nil)
	imageURL := func(model.Row) (string, bool) { return "", false }
	if c.Bool("oekaki") {
		g := search.NewGallery(client, client.ImageURL, nil)
		pager, imageURL = g.Pager, g.ImageURL
	}

	var rows []model.Row
	var count *model.Count
	if c.Bool("all") {
		rows, err = pager.FetchAll(ctx, f, c.Int("limit"))
	} else {
		err = pager.Submit(ctx, f)
		st := pager.State()
		rows, count = st.Rows, st.Count
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if c.Bool("json") {
		return printJSON(rows)
	}
	if count != nil {
		fmt.Printf("%s件 / %s ID\n\n", render.Count(count.TotalResCount), render.Count(count.UniqueIDCount))
	}
	for _, r := range rows {
		printRow(r, imageURL)
	}
	if !c.Bool("all") && pager.HasMore() {
		fmt.Println("(more results: use --all)")
	}
	return nil
}

func printRow(r model.Row, imageURL func(model.Row) (string, bool)) {
	fmt.Printf("No.%d %s %s ID:%s\n", r.No, r.NameAndTrip, render.Timestamp(r.Datetime), r.ID)
	for _, line := range strings.Split(render.Text(r.MainTextHTML), "\n") {
		fmt.Printf("  %s\n", line)
	}
	if u, ok := imageURL(r); ok {
		fmt.Printf("  [%s] %s\n", r.OekakiTitle, u)
	}
	if n, ok := search.DerivedFrom(r); ok {
		fmt.Printf("  (No.%d から派生)\n", n)
	}
	fmt.Println()
}
