// Package search pages through post search results with a keyset cursor.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
)

const (
	// PageSize is the fixed backend page length. A full page implies more rows.
	PageSize = 100
	// MaxCursor seeds a descending search.
	MaxCursor = 2147483647
)

var (
	// ErrNoMore is returned by LoadMore once the last page has been seen.
	ErrNoMore = errors.New("search: no more results")
	// ErrInFlight is returned by LoadMore while a page request is outstanding.
	ErrInFlight = errors.New("search: request in flight")
	// ErrSuperseded is returned when a newer Submit replaced the search a
	// request belonged to. Its result is discarded.
	ErrSuperseded = errors.New("search: superseded by a newer search")
)

// Client is the backend surface a Pager needs. *api.Client implements it.
type Client interface {
	Search(ctx context.Context, f model.Filters, cursor int, oekaki bool) ([]model.Row, error)
	Count(ctx context.Context, f model.Filters, cursor int, oekaki bool) (model.Count, error)
}

// State is a copy of the pager's view state.
type State struct {
	Filters   model.Filters
	Rows      []model.Row
	Cursor    int
	HasMore   bool
	Count     *model.Count
	Loading   bool
	Submitted bool
}

// Pager accumulates result pages for one search at a time. Safe for
// concurrent use; at most one page request runs at once.
type Pager struct {
	client Client
	log    *otel.Logger
	oekaki bool

	mu        sync.Mutex
	filters   model.Filters
	rows      []model.Row
	cursor    int
	hasMore   bool
	count     *model.Count
	inFlight  bool
	submitted bool
	gen       uint64
}

// NewPager returns a pager over plain search results. log may be nil.
func NewPager(client Client, log *otel.Logger) *Pager {
	return &Pager{client: client, log: log}
}

func (p *Pager) comp() string {
	if p.oekaki {
		return "oekaki"
	}
	return "search"
}

// Seed is the starting cursor for a search direction.
func Seed(ascending bool) int {
	if ascending {
		return 0
	}
	return MaxCursor
}

// Submit starts a new search, discarding all prior state, and fetches the
// first page and the total count concurrently. A count failure is logged
// and leaves Count nil; only a page failure fails the submit.
func (p *Pager) Submit(ctx context.Context, f model.Filters) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("search: invalid filters: %w", err)
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.filters = f
	p.rows = nil
	p.cursor = Seed(f.Ascending)
	p.hasMore = false
	p.count = nil
	p.inFlight = true
	p.submitted = true
	cursor := p.cursor
	p.mu.Unlock()

	done := p.log.Timed(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: p.comp(), Query: f.Values().Encode()})
	p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchStart, Comp: p.comp(), Query: f.Values().Encode(), Cursor: cursor})

	var (
		page  []model.Row
		count model.Count
		cerr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		page, err = p.client.Search(ctx, f, cursor, p.oekaki)
		return err
	})
	g.Go(func() error {
		count, cerr = p.client.Count(ctx, f, cursor, p.oekaki)
		return nil
	})
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return ErrSuperseded
	}
	p.inFlight = false

	if cerr != nil {
		logging.Warn("search count failed", "err", cerr)
		p.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchError, Comp: p.comp(), Err: cerr.Error(), Msg: "count"})
	} else {
		c := count
		p.count = &c
		p.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchCount, Comp: p.comp(), Count: c.TotalResCount})
	}

	if err != nil {
		p.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSearchError, Comp: p.comp(), Err: err.Error()})
		return fmt.Errorf("search: first page: %w", err)
	}
	p.apply(page)
	done(func(e *otel.Event) { e.Count = len(p.rows); e.Cursor = p.cursor })
	return nil
}

// LoadMore fetches the page after the cursor and appends it. It returns
// ErrNoMore when the last page was already seen and ErrInFlight while
// another page request is outstanding.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if !p.submitted || !p.hasMore {
		p.mu.Unlock()
		return ErrNoMore
	}
	if p.inFlight {
		p.mu.Unlock()
		return ErrInFlight
	}
	p.inFlight = true
	gen, f, cursor := p.gen, p.filters, p.cursor
	p.mu.Unlock()

	page, err := p.client.Search(ctx, f, cursor, p.oekaki)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return ErrSuperseded
	}
	p.inFlight = false
	if err != nil {
		p.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSearchError, Comp: p.comp(), Cursor: cursor, Err: err.Error()})
		return fmt.Errorf("search: load more: %w", err)
	}
	p.apply(page)
	return nil
}

// apply folds one page into the state. Must be called with mu held.
func (p *Pager) apply(page []model.Row) {
	p.hasMore = len(page) == PageSize
	if len(page) > 0 {
		p.rows = append(p.rows, page...)
		p.cursor = page[len(page)-1].No
	}
	p.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchPage, Comp: p.comp(), Count: len(page), Cursor: p.cursor})
}

// HasMore reports whether LoadMore can fetch another page.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Rows returns a copy of the accumulated rows.
func (p *Pager) Rows() []model.Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Row(nil), p.rows...)
}

// State returns a copy of the full view state.
func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := State{
		Filters:   p.filters,
		Rows:      append([]model.Row(nil), p.rows...),
		Cursor:    p.cursor,
		HasMore:   p.hasMore,
		Loading:   p.inFlight,
		Submitted: p.submitted,
	}
	if p.count != nil {
		c := *p.count
		s.Count = &c
	}
	return s
}

// FetchAll submits f and keeps loading pages until the results run out or
// limit rows are held. A limit of zero or less means no limit.
func (p *Pager) FetchAll(ctx context.Context, f model.Filters, limit int) ([]model.Row, error) {
	if err := p.Submit(ctx, f); err != nil {
		return nil, err
	}
	for {
		rows := p.Rows()
		if limit > 0 && len(rows) >= limit {
			return rows[:limit], nil
		}
		err := p.LoadMore(ctx)
		if errors.Is(err, ErrNoMore) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
	}
}
