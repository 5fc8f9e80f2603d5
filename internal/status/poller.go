// Package status polls the backend's retrieval index status.
package status

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/render"
)

// DefaultInterval is the time between status polls.
const DefaultInterval = 30 * time.Second

// FetchFunc reads the current status, usually (*api.Client).Status.
type FetchFunc func(ctx context.Context) (model.IndexStatus, error)

// Result is the outcome of one poll.
type Result struct {
	Status model.IndexStatus
	Err    error
	At     time.Time
}

// Poller fetches the status immediately and then on every tick.
// Uses context cancellation as the ONLY stop mechanism.
type Poller struct {
	Interval time.Duration

	log *otel.Logger
	wg  sync.WaitGroup
}

// NewPoller returns a poller. A zero interval means DefaultInterval.
// log may be nil.
func NewPoller(interval time.Duration, log *otel.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{Interval: interval, log: log}
}

// Run polls until ctx is cancelled, calling onResult after every fetch.
func (p *Poller) Run(ctx context.Context, fetch FetchFunc, onResult func(Result)) {
	p.poll(ctx, fetch, onResult)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, fetch, onResult)
		}
	}
}

// Start runs Run in a background goroutine.
func (p *Poller) Start(ctx context.Context, fetch FetchFunc, onResult func(Result)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(ctx, fetch, onResult)
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) poll(ctx context.Context, fetch FetchFunc, onResult func(Result)) {
	if r, ok := p.Once(ctx, fetch); ok {
		onResult(r)
	}
}

// Once performs a single fetch. ok is false when ctx was cancelled while
// fetching, in which case the result must not be applied.
func (p *Poller) Once(ctx context.Context, fetch FetchFunc) (Result, bool) {
	st, err := fetch(ctx)
	if ctx.Err() != nil {
		return Result{}, false
	}
	if err != nil {
		p.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStatusError, Comp: "status", Err: err.Error()})
	} else {
		p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindStatusPoll, Comp: "status", Count: st.Index.TotalPosts})
	}
	return Result{Status: st, Err: err, At: time.Now()}, true
}

// Generation tags poll ticks of a view. Bumping it on teardown makes every
// tick issued before the bump stale.
type Generation struct {
	n atomic.Uint64
}

// Current returns the live generation.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// Bump invalidates outstanding ticks and returns the new generation.
func (g *Generation) Bump() uint64 {
	return g.n.Add(1)
}

// Live reports whether a tick tagged gen is still current.
func (g *Generation) Live(gen uint64) bool {
	return g.n.Load() == gen
}

// Describe renders an index status line.
func Describe(s model.IndexStatus) string {
	if !s.Built() {
		return "インデックスが構築されていません"
	}
	last := "不明"
	if s.Index.LastSync != nil && *s.Index.LastSync != "" {
		last = render.FormatTime(*s.Index.LastSync, render.MinuteLayout, time.Local)
	}
	return fmt.Sprintf("インデックス済み: No.%d - No.%d（%s件） 最終更新: %s",
		s.Index.MinPostNo, s.Index.MaxPostNo, render.Count(s.Index.TotalPosts), last)
}

// DescribeResult renders a poll result, including its error.
func DescribeResult(r Result) string {
	if r.Err != nil {
		return "エラー: " + r.Err.Error()
	}
	return Describe(r.Status)
}
