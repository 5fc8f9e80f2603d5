// Package stub serves a fake bulletin-board backend from in-memory fixtures.
// It speaks the same HTTP and stream contract as the real backend, for
// end-to-end tests and local development.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/abelbrown/boardview/internal/model"
)

const pageSize = 100

// Fixture is the data a Server answers with.
type Fixture struct {
	Status model.IndexStatus
	// Posts in any order; served sorted by No.
	Posts []model.Row
	// Ranking, if set, is returned verbatim. Otherwise the ranking is
	// computed from Posts.
	Ranking *model.RankingResult
	// Answer lines, without terminators, replayed for every question.
	Answer []string
	// ChunkSize splits the answer body into writes of this many bytes.
	// Zero writes each event whole.
	ChunkSize int
	// ChunkDelay pauses between writes.
	ChunkDelay time.Duration
	// AskStatus, when non-zero, fails the ask endpoint with that code.
	AskStatus int
}

// AskRequest is a recorded question.
type AskRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Server is the fake backend.
type Server struct {
	echo *echo.Echo

	mu        sync.Mutex
	fixture   Fixture
	questions []AskRequest
}

// New builds a server over f.
func New(f Fixture) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, fixture: f}
	s.setupRoutes()
	return s
}

// WithRequestLog logs every request to the echo logger.
func (s *Server) WithRequestLog() *Server {
	s.echo.Use(middleware.Logger())
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.getStatus)
	v1.GET("/search", s.getSearch)
	v1.GET("/search/count", s.getCount)
	v1.GET("/ranking", s.getRanking)
	v1.POST("/ask", s.postAsk)
}

// ServeHTTP makes Server usable with httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("stub: serve: %w", err)
	}
	return nil
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// SetFixture swaps the served data.
func (s *Server) SetFixture(f Fixture) {
	s.mu.Lock()
	s.fixture = f
	s.mu.Unlock()
}

// Questions returns every question received so far.
func (s *Server) Questions() []AskRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AskRequest(nil), s.questions...)
}

func (s *Server) snapshot() Fixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fixture
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.snapshot().Status)
}

// query is the decoded search query string.
type query struct {
	filters   model.Filters
	cursor    int
	oekaki    bool
	hasOekaki bool
}

func parseQuery(c echo.Context) (query, error) {
	q := query{filters: model.FiltersFromValues(c.QueryParams())}
	if s := c.QueryParam("cursor"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid cursor %q", s)
		}
		q.cursor = n
	}
	if s := c.QueryParam("oekaki"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid oekaki %q", s)
		}
		q.oekaki, q.hasOekaki = b, true
	}
	return q, nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"detail": err.Error()})
}

// match applies the filter fields. Dates compare on the datetime's date part.
func match(r model.Row, f model.Filters, oekaki *bool) bool {
	if f.ID != "" && r.ID != f.ID {
		return false
	}
	if f.MainText != "" && !strings.Contains(r.MainText, f.MainText) {
		return false
	}
	if f.NameAndTrip != "" && !strings.Contains(r.NameAndTrip, f.NameAndTrip) {
		return false
	}
	day := r.Datetime
	if len(day) > 10 {
		day = day[:10]
	}
	if f.Since != "" && day < f.Since {
		return false
	}
	if f.Until != "" && day > f.Until {
		return false
	}
	if oekaki != nil && *oekaki && !r.HasOekaki() {
		return false
	}
	return true
}

func (s *Server) matching(q query) []model.Row {
	var oekaki *bool
	if q.hasOekaki {
		oekaki = &q.oekaki
	}
	var out []model.Row
	for _, r := range s.snapshot().Posts {
		if match(r, q.filters, oekaki) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].No < out[j].No })
	return out
}

func (s *Server) getSearch(c echo.Context) error {
	q, err := parseQuery(c)
	if err != nil {
		return badRequest(c, err)
	}
	rows := s.matching(q)

	page := []model.Row{}
	if q.filters.Ascending {
		for _, r := range rows {
			if r.No > q.cursor {
				page = append(page, r)
				if len(page) == pageSize {
					break
				}
			}
		}
	} else {
		for i := len(rows) - 1; i >= 0; i-- {
			if rows[i].No < q.cursor {
				page = append(page, rows[i])
				if len(page) == pageSize {
					break
				}
			}
		}
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getCount(c echo.Context) error {
	q, err := parseQuery(c)
	if err != nil {
		return badRequest(c, err)
	}
	rows := s.matching(q)
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.ID] = struct{}{}
	}
	return c.JSON(http.StatusOK, model.Count{TotalResCount: len(rows), UniqueIDCount: len(ids)})
}

func (s *Server) getRanking(c echo.Context) error {
	f := s.snapshot()
	if f.Ranking != nil {
		return c.JSON(http.StatusOK, f.Ranking)
	}
	p := model.RankingParamsFromValues(c.QueryParams())
	if err := p.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
	}
	return c.JSON(http.StatusOK, Rank(f.Posts, p))
}

func (s *Server) postAsk(c echo.Context) error {
	var req AskRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Question) == "" {
		return badRequest(c, fmt.Errorf("question is required"))
	}
	s.mu.Lock()
	s.questions = append(s.questions, req)
	f := s.fixture
	s.mu.Unlock()

	if f.AskStatus != 0 {
		return c.String(f.AskStatus, "stub: ask failed")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for _, chunk := range Chunks(f.Answer, f.ChunkSize) {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := resp.Write(chunk); err != nil {
			return nil
		}
		resp.Flush()
		if f.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(f.ChunkDelay):
			}
		}
	}
	return nil
}

// Chunks frames lines the way sse-starlette does, one CRLF-terminated line
// plus a blank line per event, and splits the result into writes of size
// bytes. A size of zero keeps one write per event.
func Chunks(lines []string, size int) [][]byte {
	var out [][]byte
	if size <= 0 {
		for _, l := range lines {
			out = append(out, []byte(l+"\r\n\r\n"))
		}
		return out
	}
	var body []byte
	for _, l := range lines {
		body = append(body, l...)
		body = append(body, "\r\n\r\n"...)
	}
	for len(body) > 0 {
		n := size
		if n > len(body) {
			n = len(body)
		}
		out = append(out, body[:n])
		body = body[n:]
	}
	return out
}
