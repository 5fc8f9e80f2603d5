// Package ranking fetches the poster ID activity ranking.
package ranking

import (
	"context"
	"fmt"
	"sync"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
)

// FailureMessage is shown when a ranking request fails.
const FailureMessage = "ランキングの取得に失敗しました"

// NoDataMessage is shown for a query that matched no IDs.
const NoDataMessage = "該当するIDはありません"

// Client is the backend surface the fetcher needs. *api.Client implements it.
type Client interface {
	Ranking(ctx context.Context, p model.RankingParams) (model.RankingResult, error)
}

// Fetcher issues ranking queries. It holds no query state.
type Fetcher struct {
	client Client
	log    *otel.Logger
}

// NewFetcher wraps client. log may be nil.
func NewFetcher(client Client, log *otel.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// Fetch validates p and queries the backend.
func (f *Fetcher) Fetch(ctx context.Context, p model.RankingParams) (model.RankingResult, error) {
	if err := p.Validate(); err != nil {
		return model.RankingResult{}, fmt.Errorf("ranking: invalid params: %w", err)
	}

	query := p.Values().Encode()
	done := f.log.Timed(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRankingComplete, Comp: "ranking", Query: query})
	f.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRankingStart, Comp: "ranking", Query: query})

	res, err := f.client.Ranking(ctx, p)
	if err != nil {
		f.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindRankingError, Comp: "ranking", Query: query, Err: err.Error()})
		return model.RankingResult{}, fmt.Errorf("ranking: %w", err)
	}
	done(func(e *otel.Event) { e.Count = len(res.Ranking) })
	return res, nil
}

// State is one snapshot of the ranking view.
type State struct {
	Params  model.RankingParams
	Loading bool
	Err     error
	Result  *model.RankingResult
}

// NoData reports a completed query with an empty ranking. It is a result,
// not an error.
func (s State) NoData() bool {
	return !s.Loading && s.Err == nil && s.Result != nil && len(s.Result.Ranking) == 0
}

// View holds the ranking view state. Every Load replaces it entirely.
type View struct {
	fetcher *Fetcher

	mu    sync.Mutex
	state State
	seq   uint64
}

// NewView returns an idle view.
func NewView(f *Fetcher) *View {
	return &View{fetcher: f}
}

// Load runs a query and replaces the state with its outcome. A Load that
// finishes after a newer one started leaves the newer state alone.
func (v *View) Load(ctx context.Context, p model.RankingParams) State {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.state = State{Params: p, Loading: true}
	v.mu.Unlock()

	res, err := v.fetcher.Fetch(ctx, p)

	next := State{Params: p, Err: err}
	if err == nil {
		next.Result = &res
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seq == seq {
		v.state = next
	}
	return next
}

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
