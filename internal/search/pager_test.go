package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abelbrown/boardview/internal/model"
)

// fakeClient serves rows numbered 1..total in either direction.
type fakeClient struct {
	mu       sync.Mutex
	total    int
	cursors  []int
	oekaki   []bool
	countErr error
	pageErr  error
	block    chan struct{}
}

func (f *fakeClient) Search(ctx context.Context, flt model.Filters, cursor int, oekaki bool) ([]model.Row, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	f.oekaki = append(f.oekaki, oekaki)
	block, err := f.block, f.pageErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	rows := []model.Row{}
	if flt.Ascending {
		for no := cursor + 1; no <= f.total && len(rows) < PageSize; no++ {
			rows = append(rows, model.Row{No: no})
		}
	} else {
		start := cursor - 1
		if start > f.total {
			start = f.total
		}
		for no := start; no >= 1 && len(rows) < PageSize; no-- {
			rows = append(rows, model.Row{No: no})
		}
	}
	return rows, nil
}

func (f *fakeClient) Count(ctx context.Context, flt model.Filters, cursor int, oekaki bool) (model.Count, error) {
	if f.countErr != nil {
		return model.Count{}, f.countErr
	}
	return model.Count{TotalResCount: f.total, UniqueIDCount: 1}, nil
}

func TestSubmitSeedsCursorByDirection(t *testing.T) {
	tests := []struct {
		name      string
		ascending bool
		wantSeed  int
		wantFirst int
	}{
		{"ascending", true, 0, 1},
		{"descending", false, MaxCursor, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClient{total: 250}
			p := NewPager(c, nil)
			if err := p.Submit(context.Background(), model.Filters{Ascending: tt.ascending}); err != nil {
				t.Fatalf("Submit() error: %v", err)
			}
			if c.cursors[0] != tt.wantSeed {
				t.Errorf("seed cursor = %d, want %d", c.cursors[0], tt.wantSeed)
			}
			rows := p.Rows()
			if rows[0].No != tt.wantFirst {
				t.Errorf("first row = %d, want %d", rows[0].No, tt.wantFirst)
			}
		})
	}
}

func TestApplyPageSizes(t *testing.T) {
	page := func(from, n int) []model.Row {
		rows := make([]model.Row, n)
		for i := range rows {
			rows[i] = model.Row{No: from + i}
		}
		return rows
	}

	tests := []struct {
		name        string
		page        []model.Row
		wantRows    int
		wantHasMore bool
		wantCursor  int
	}{
		{"full page", page(11, 100), 110, true, 110},
		{"empty page", nil, 10, false, 10},
		{"partial page", page(11, 37), 47, false, 47},
		{"single row", page(11, 1), 11, false, 11},
		{"ninety nine", page(11, 99), 109, false, 109},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(&fakeClient{}, nil)
			p.rows = page(1, 10)
			p.cursor = 10
			p.hasMore = true

			p.apply(tt.page)

			if len(p.rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(p.rows), tt.wantRows)
			}
			if p.hasMore != tt.wantHasMore {
				t.Errorf("hasMore = %v, want %v", p.hasMore, tt.wantHasMore)
			}
			if p.cursor != tt.wantCursor {
				t.Errorf("cursor = %d, want %d", p.cursor, tt.wantCursor)
			}
		})
	}
}

func TestLoadMoreAdvancesCursorToLastRow(t *testing.T) {
	c := &fakeClient{total: 250}
	p := NewPager(c, nil)
	ctx := context.Background()
	if err := p.Submit(ctx, model.Filters{Ascending: true}); err != nil {
		t.Fatal(err)
	}
	if !p.HasMore() {
		t.Fatal("HasMore() false after a full first page")
	}

	if err := p.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore() error: %v", err)
	}
	if err := p.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore() error: %v", err)
	}
	if got := c.cursors; len(got) != 3 || got[1] != 100 || got[2] != 200 {
		t.Errorf("cursors = %v, want [0 100 200]", got)
	}

	st := p.State()
	if len(st.Rows) != 250 || st.HasMore || st.Cursor != 250 {
		t.Errorf("state = rows %d, hasMore %v, cursor %d", len(st.Rows), st.HasMore, st.Cursor)
	}
	if err := p.LoadMore(ctx); !errors.Is(err, ErrNoMore) {
		t.Errorf("LoadMore() after last page = %v, want ErrNoMore", err)
	}
	if len(c.cursors) != 3 {
		t.Error("LoadMore() without more pages still hit the backend")
	}
}

func TestLoadMoreBeforeSubmit(t *testing.T) {
	p := NewPager(&fakeClient{}, nil)
	if err := p.LoadMore(context.Background()); !errors.Is(err, ErrNoMore) {
		t.Errorf("LoadMore() = %v, want ErrNoMore", err)
	}
}

func TestLoadMoreSingleFlight(t *testing.T) {
	c := &fakeClient{total: 300}
	p := NewPager(c, nil)
	ctx := context.Background()
	if err := p.Submit(ctx, model.Filters{Ascending: true}); err != nil {
		t.Fatal(err)
	}

	c.mu.Lock()
	c.block = make(chan struct{})
	c.mu.Unlock()

	errc := make(chan error, 1)
	go func() { errc <- p.LoadMore(ctx) }()

	// Wait until the first LoadMore holds the in-flight slot.
	for {
		c.mu.Lock()
		n := len(c.cursors)
		c.mu.Unlock()
		if n == 2 {
			break
		}
	}
	if err := p.LoadMore(ctx); !errors.Is(err, ErrInFlight) {
		t.Errorf("concurrent LoadMore() = %v, want ErrInFlight", err)
	}
	if !p.State().Loading {
		t.Error("State().Loading false during a request")
	}

	close(c.block)
	if err := <-errc; err != nil {
		t.Fatalf("LoadMore() error: %v", err)
	}
	if got := len(p.Rows()); got != 200 {
		t.Errorf("rows = %d, want 200", got)
	}
}

func TestSubmitResetsState(t *testing.T) {
	c := &fakeClient{total: 150}
	p := NewPager(c, nil)
	ctx := context.Background()
	if err := p.Submit(ctx, model.Filters{Ascending: true}); err != nil {
		t.Fatal(err)
	}
	if err := p.LoadMore(ctx); err != nil {
		t.Fatal(err)
	}

	if err := p.Submit(ctx, model.Filters{ID: "abc"}); err != nil {
		t.Fatal(err)
	}
	st := p.State()
	if len(st.Rows) != 100 || st.Rows[0].No != 150 || st.Filters.ID != "abc" {
		t.Errorf("state after resubmit = rows %d first %d filters %+v", len(st.Rows), st.Rows[0].No, st.Filters)
	}
	if st.Count == nil || st.Count.TotalResCount != 150 {
		t.Errorf("count = %+v", st.Count)
	}
}

func TestSubmitEmptyResult(t *testing.T) {
	p := NewPager(&fakeClient{total: 0}, nil)
	if err := p.Submit(context.Background(), model.Filters{}); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	st := p.State()
	if len(st.Rows) != 0 || st.HasMore || st.Cursor != MaxCursor {
		t.Errorf("state = %+v", st)
	}
}

func TestCountFailureDoesNotFailSubmit(t *testing.T) {
	p := NewPager(&fakeClient{total: 5, countErr: errors.New("count down")}, nil)
	if err := p.Submit(context.Background(), model.Filters{}); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	st := p.State()
	if st.Count != nil {
		t.Errorf("Count = %+v, want nil", st.Count)
	}
	if len(st.Rows) != 5 {
		t.Errorf("rows = %d, want 5", len(st.Rows))
	}
}

func TestPageFailureFailsSubmit(t *testing.T) {
	p := NewPager(&fakeClient{total: 5, pageErr: errors.New("down")}, nil)
	if err := p.Submit(context.Background(), model.Filters{}); err == nil {
		t.Fatal("Submit() should fail when the page request fails")
	}
	if p.State().Loading {
		t.Error("Loading stuck after failure")
	}
}

func TestSubmitRejectsBadDates(t *testing.T) {
	c := &fakeClient{total: 5}
	p := NewPager(c, nil)
	if err := p.Submit(context.Background(), model.Filters{Since: "yesterday"}); err == nil {
		t.Fatal("Submit() accepted an invalid date")
	}
	if len(c.cursors) != 0 {
		t.Error("invalid filters still reached the backend")
	}
}

func TestFetchAll(t *testing.T) {
	tests := []struct {
		name  string
		total int
		limit int
		want  int
	}{
		{"everything", 250, 0, 250},
		{"limited", 250, 120, 120},
		{"limit above total", 30, 500, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(&fakeClient{total: tt.total}, nil)
			rows, err := p.FetchAll(context.Background(), model.Filters{Ascending: true}, tt.limit)
			if err != nil {
				t.Fatalf("FetchAll() error: %v", err)
			}
			if len(rows) != tt.want {
				t.Errorf("FetchAll() = %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestGallery(t *testing.T) {
	c := &fakeClient{total: 3}
	g := NewGallery(c, func(id int) string { return "http://img/" + string(rune('0'+id)) + ".png" }, nil)
	if err := g.Submit(context.Background(), model.Filters{}); err != nil {
		t.Fatal(err)
	}
	if !c.oekaki[0] {
		t.Error("gallery search did not request oekaki rows")
	}

	if u, ok := g.ImageURL(model.Row{OekakiID: 4}); !ok || u != "http://img/4.png" {
		t.Errorf("ImageURL() = %q, %v", u, ok)
	}
	if _, ok := g.ImageURL(model.Row{}); ok {
		t.Error("ImageURL() for a row without oekaki")
	}
	if no, ok := DerivedFrom(model.Row{OriginalOekakiResNo: 12}); !ok || no != 12 {
		t.Errorf("DerivedFrom() = %d, %v", no, ok)
	}
	if _, ok := DerivedFrom(model.Row{}); ok {
		t.Error("DerivedFrom() for an original drawing")
	}
}
