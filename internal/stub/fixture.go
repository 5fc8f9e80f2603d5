package stub

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/abelbrown/boardview/internal/model"
)

// TokenLine is the data line of a token event.
func TokenLine(tok string) string {
	return dataLine(map[string]any{"type": "token", "token": tok})
}

// CitationsLine is the data line of a citations event.
func CitationsLine(cs []model.Citation) string {
	if cs == nil {
		cs = []model.Citation{}
	}
	return dataLine(map[string]any{"type": "citations", "citations": cs})
}

// CompleteLine is the data line of a complete event.
func CompleteLine() string {
	return dataLine(map[string]any{"type": "complete"})
}

// ErrorLine is the data line of an error event.
func ErrorLine(msg string) string {
	return dataLine(map[string]any{"type": "error", "message": msg})
}

func dataLine(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("stub: marshal event: %v", err))
	}
	return "data: " + string(b)
}

// Answer builds the lines of a successful answer: tokens, one citations
// event, then complete.
func Answer(tokens []string, cs []model.Citation) []string {
	lines := make([]string, 0, len(tokens)+2)
	for _, t := range tokens {
		lines = append(lines, TokenLine(t))
	}
	lines = append(lines, CitationsLine(cs), CompleteLine())
	return lines
}

// Rank aggregates posts per ID the way the backend ranking does. Ranks are
// dense and 1-based.
func Rank(posts []model.Row, p model.RankingParams) model.RankingResult {
	f := model.Filters{ID: p.ID, MainText: p.MainText, NameAndTrip: p.NameAndTrip, Since: p.Since, Until: p.Until}
	byID := map[string]*model.RankingEntry{}
	total := 0
	for _, r := range posts {
		if !match(r, f, p.Oekaki) {
			continue
		}
		total++
		e, ok := byID[r.ID]
		if !ok {
			e = &model.RankingEntry{ID: r.ID, FirstPostNo: r.No, FirstPostDatetime: r.Datetime, LatestPostNo: r.No, LatestPostDatetime: r.Datetime}
			byID[r.ID] = e
		}
		e.PostCount++
		if r.No < e.FirstPostNo {
			e.FirstPostNo, e.FirstPostDatetime = r.No, r.Datetime
		}
		if r.No > e.LatestPostNo {
			e.LatestPostNo, e.LatestPostDatetime = r.No, r.Datetime
		}
	}

	entries := []model.RankingEntry{}
	for _, e := range byID {
		if p.MinPosts != nil && e.PostCount < *p.MinPosts {
			continue
		}
		entries = append(entries, *e)
	}
	byActivity := p.RankingType == model.RankingRecentActivity
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if byActivity && a.LatestPostNo != b.LatestPostNo {
			return a.LatestPostNo > b.LatestPostNo
		}
		if a.PostCount != b.PostCount {
			return a.PostCount > b.PostCount
		}
		return a.ID < b.ID
	})

	rank := 0
	for i := range entries {
		key := entries[i].PostCount
		if byActivity {
			key = entries[i].LatestPostNo
		}
		if i == 0 {
			rank = 1
		} else {
			prev := entries[i-1].PostCount
			if byActivity {
				prev = entries[i-1].LatestPostNo
			}
			if key != prev {
				rank++
			}
		}
		entries[i].Rank = rank
	}

	return model.RankingResult{
		Ranking:        entries,
		TotalUniqueIDs: len(byID),
		TotalResCount:  total,
		SearchConditions: model.SearchConditions{
			ID:          nonEmpty(p.ID),
			MainText:    nonEmpty(p.MainText),
			NameAndTrip: nonEmpty(p.NameAndTrip),
			Oekaki:      p.Oekaki,
			Since:       nonEmpty(p.Since),
			Until:       nonEmpty(p.Until),
		},
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Demo is a small board for local development: n posts across a handful of
// IDs, every seventh carrying an oekaki, and a canned answer citing post 5.
func Demo(n int) Fixture {
	ids := []string{"abcd1234", "efgh5678", "ijkl9012", "mnop3456", "qrst7890"}
	names := []string{"名無しさん", "◆trip01", "名無しさん", "絵師◆art", "名無しさん"}
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	posts := make([]model.Row, 0, n)
	for i := 1; i <= n; i++ {
		at := base.Add(time.Duration(i) * 7 * time.Minute)
		who := (i * i) % len(ids)
		r := model.Row{
			No:           i,
			NameAndTrip:  names[who],
			Datetime:     at.Format("2006-01-02T15:04:05"),
			DatetimeText: at.Format("2006/01/02(Mon) 15:04:05"),
			ID:           ids[who],
			MainText:     fmt.Sprintf("レス%d です", i),
			MainTextHTML: fmt.Sprintf("レス%d です", i),
		}
		if i > 1 && i%4 == 0 {
			r.MainText = fmt.Sprintf(">>%d %s", i-1, r.MainText)
			r.MainTextHTML = fmt.Sprintf(`<a href="/?no=%d">&gt;&gt;%d</a> レス%d です`, i-1, i-1, i)
		}
		if i%7 == 0 {
			r.OekakiID = 1000 + i
			r.OekakiTitle = fmt.Sprintf("お絵描き%d", i)
			if i%14 == 0 {
				r.OriginalOekakiResNo = i - 7
			}
		}
		posts = append(posts, r)
	}

	lastSync := base.Add(time.Duration(n) * 7 * time.Minute).Format("2006-01-02T15:04:05")
	status := model.IndexStatus{Status: "ok", Index: model.IndexInfo{TotalPosts: n, MinPostNo: 1, MaxPostNo: n, LastSync: &lastSync}}
	if n == 0 {
		status.Index = model.IndexInfo{}
	}

	return Fixture{
		Status: status,
		Posts:  posts,
		Answer: Answer([]string{"Hi", " there"}, []model.Citation{{
			SourcePostNo:   5,
			Author:         "名無しさん",
			Timestamp:      "2024-05-01T09:35:00",
			ContentExcerpt: "レス5 です",
		}}),
	}
}
