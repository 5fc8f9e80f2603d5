package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/ranking"
	"github.com/abelbrown/boardview/internal/render"
)

func rankingCommand() *cli.Command {
	flags := append(filterFlags(),
		&cli.StringFlag{Name: "type", Value: string(model.RankingPostCount), Usage: "post_count or recent_activity"},
		&cli.IntFlag{Name: "min-posts", Usage: "Drop IDs with fewer posts"},
		&cli.BoolFlag{Name: "oekaki", Usage: "Only count posts with an image"},
		&cli.BoolFlag{Name: "json", Usage: "Print the raw response"},
	)
	return &cli.Command{
		Name:   "ranking",
		Usage:  "Rank poster IDs by activity",
		Flags:  flags,
		Action: runRanking,
	}
}

func runRanking(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	p := model.RankingParamsFromFilters(filtersFromFlags(c))
	p.RankingType = model.RankingType(c.String("type"))
	if c.IsSet("min-posts") {
		n := c.Int("min-posts")
		p.MinPosts = &n
	}
	if c.IsSet("oekaki") {
		b := c.Bool("oekaki")
		p.Oekaki = &b
	}

	res, err := ranking.NewFetcher(client, nil).Fetch(ctx, p)
	if err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if c.Bool("json") {
		return printJSON(res)
	}
	if len(res.Ranking) == 0 {
		fmt.Println(ranking.NoDataMessage)
		return nil
	}

	fmt.Printf("%s ID / %s件\n\n", render.Count(res.TotalUniqueIDs), render.Count(res.TotalResCount))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "順位\tID\t投稿数\t最新\t最初")
	for _, e := range res.Ranking {
		fmt.Fprintf(w, "%d\t%s\t%s\tNo.%d %s\tNo.%d %s\n",
			e.Rank, e.ID, render.Count(e.PostCount),
			e.LatestPostNo, render.Timestamp(e.LatestPostDatetime),
			e.FirstPostNo, render.Timestamp(e.FirstPostDatetime))
	}
	return w.Flush()
}
