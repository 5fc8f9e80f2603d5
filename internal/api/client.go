// Package api is the HTTP client for the bulletin-board backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/boardview/internal/logging"
	"github.com/abelbrown/boardview/internal/model"
)

// maxBodyBytes caps non-streaming response bodies.
const maxBodyBytes = 16 << 20

// Options configure a Client. BaseURL is required.
type Options struct {
	BaseURL string
	// ImageBaseURL hosts oekaki PNGs. Defaults to BaseURL + "/images".
	ImageBaseURL string
	// Timeout applies to JSON requests only; the ask stream is bounded by
	// its context instead. Defaults to 30s.
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing requests. Zero means unlimited.
	RequestsPerSecond float64
	// HTTPClient overrides the transport (tests). Its Timeout is ignored.
	HTTPClient *http.Client
}

// Client issues backend requests. Safe for concurrent use.
type Client struct {
	baseURL      string
	imageBaseURL string
	timeout      time.Duration
	http         *http.Client
	limiter      *rate.Limiter
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: backend returned %s", e.Status)
	}
	return fmt.Sprintf("api: backend returned %s: %s", e.Status, e.Body)
}

// New builds a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	images := strings.TrimRight(opts.ImageBaseURL, "/")
	if images == "" {
		images = base + "/images"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	hc := opts.HTTPClient
	if hc == nil {
		// No client-level timeout: it would cut off long answer streams.
		hc = &http.Client{}
	}
	return &Client{
		baseURL:      base,
		imageBaseURL: images,
		timeout:      timeout,
		http:         hc,
		limiter:      rate.NewLimiter(limit, 1),
	}
}

// BaseURL is the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL is the PNG location of an oekaki attachment.
func (c *Client) ImageURL(oekakiID int) string {
	return fmt.Sprintf("%s/%d.png", c.imageBaseURL, oekakiID)
}

// Status fetches the retrieval index status.
func (c *Client) Status(ctx context.Context) (model.IndexStatus, error) {
	var out model.IndexStatus
	err := c.getJSON(ctx, "/api/v1/status", nil, &out)
	return out, err
}

// searchValues always sends every search parameter, empty or not.
func searchValues(f model.Filters, cursor int, oekaki bool) url.Values {
	return url.Values{
		"id":            {f.ID},
		"main_text":     {f.MainText},
		"name_and_trip": {f.NameAndTrip},
		"cursor":        {strconv.Itoa(cursor)},
		"ascending":     {strconv.FormatBool(f.Ascending)},
		"since":         {f.Since},
		"until":         {f.Until},
		"oekaki":        {strconv.FormatBool(oekaki)},
	}
}

// Search fetches one page of rows after cursor in the filters' direction.
func (c *Client) Search(ctx context.Context, f model.Filters, cursor int, oekaki bool) ([]model.Row, error) {
	var rows []model.Row
	if err := c.getJSON(ctx, "/api/v1/search", searchValues(f, cursor, oekaki), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count fetches the totals for a search.
func (c *Client) Count(ctx context.Context, f model.Filters, cursor int, oekaki bool) (model.Count, error) {
	var out model.Count
	err := c.getJSON(ctx, "/api/v1/search/count", searchValues(f, cursor, oekaki), &out)
	return out, err
}

// Ranking fetches the ID activity ranking. Only set params are sent.
func (c *Client) Ranking(ctx context.Context, p model.RankingParams) (model.RankingResult, error) {
	var out model.RankingResult
	err := c.getJSON(ctx, "/api/v1/ranking", p.Values(), &out)
	return out, err
}

type askRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Ask posts a question and returns the answer event stream. The caller must
// close the body; cancelling ctx aborts the stream.
func (c *Client) Ask(ctx context.Context, question, conversationID string) (io.ReadCloser, error) {
	body, err := json.Marshal(askRequest{Question: question, ConversationID: conversationID})
	if err != nil {
		return nil, fmt.Errorf("api: marshal ask: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("api: rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api: create ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	logging.Debug("api request", "method", "POST", "path", "/api/v1/ask", "question_len", len(question))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: ask: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: rate limiter wait: %w", err)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Warn("api error", "path", path, "status", resp.StatusCode)
		return statusError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("api: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}

	logging.Debug("api request", "method", "GET", "path", path, "bytes", len(data), "took", time.Since(start))
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{
		Code:   resp.StatusCode,
		Status: resp.Status,
		Body:   strings.TrimSpace(string(body)),
	}
}
