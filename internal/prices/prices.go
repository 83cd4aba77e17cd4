/*
Package prices looks up daily OHLC prices for ASX symbols from the Yahoo
Finance chart endpoint.
*/
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/logger"
	"github.com/shanehull/asxreport/internal/types"
)

// PriceLookupError reports that the price source could not be queried for a
// symbol. The announcement keeps empty prices.
type PriceLookupError struct {
	Symbol string
	Err    error
}

func (e *PriceLookupError) Error() string {
	return fmt.Sprintf("price lookup for %s: %v", e.Symbol, e.Err)
}

func (e *PriceLookupError) Unwrap() error { return e.Err }

// chartResponse is the subset of the v8 chart payload we read. Quote values
// are pointers because Yahoo sends null for missing sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d", e.code) }

// Client queries daily prices. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	suffix      string
	windowDays  int
	loc         *time.Location
	limiter     *rate.Limiter
	maxAttempts int
	backoffMin  time.Duration
	backoffMax  time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	memo map[string]types.OHLC
}

// NewClient creates a price client. Sessions are bucketed by calendar day in
// loc.
func NewClient(cfg config.Prices, loc *time.Location, log *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if loc == nil {
		loc = time.UTC
	}
	windowDays := cfg.LookupWindowDays
	if windowDays < 1 {
		windowDays = 1
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		suffix:      cfg.SymbolSuffix,
		windowDays:  windowDays,
		loc:         loc,
		limiter:     rate.NewLimiter(limit, 1),
		maxAttempts: attempts,
		backoffMin:  250 * time.Millisecond,
		backoffMax:  4 * time.Second,
		logger:      logger.OrNop(log),
		memo:        make(map[string]types.OHLC),
	}
}

// Window returns the lookup interval [date - windowDays, date) in the
// client's location, with date truncated to midnight.
func (c *Client) Window(date time.Time) (start, end time.Time) {
	d := date.In(c.loc)
	end = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	return end.AddDate(0, 0, -c.windowDays), end
}

// Lookup returns the most recent session inside the window preceding date.
// No data is not an error: the result is simply empty. Transport failures
// are returned as *PriceLookupError.
func (c *Client) Lookup(ctx context.Context, symbol string, date time.Time) (types.OHLC, error) {
	start, end := c.Window(date)
	key := symbol + "|" + end.Format("2006-01-02")

	c.mu.Lock()
	if p, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	resp, err := c.fetchWithRetry(ctx, symbol, start, end)
	if err != nil {
		return types.OHLC{}, &PriceLookupError{Symbol: symbol, Err: err}
	}

	p := latestSession(resp, start, end)

	c.mu.Lock()
	c.memo[key] = p
	c.mu.Unlock()

	if p.Empty() {
		c.logger.Debug("no price session in window",
			zap.String("symbol", symbol),
			zap.Time("start", start),
			zap.Time("end", end),
		)
	}
	return p, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, symbol string, start, end time.Time) (*chartResponse, error) {
	b := &backoff.Backoff{
		Min:    c.backoffMin,
		Max:    c.backoffMax,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.fetch(ctx, symbol, start, end)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == c.maxAttempts {
			break
		}

		wait := b.Duration()
		c.logger.Debug("retrying price lookup",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var de *json.SyntaxError
	return !errors.As(err, &de)
}

func (c *Client) fetch(ctx context.Context, symbol string, start, end time.Time) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol+c.suffix), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Unknown or delisted symbols come back as 404 with a "Not Found" error.
	if resp.StatusCode == http.StatusNotFound {
		return &chartResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var out chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	return &out, nil
}

func latestSession(resp *chartResponse, start, end time.Time) types.OHLC {
	if resp == nil || len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return types.OHLC{}
	}
	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	at := func(vals []*float64, i int) *float64 {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}

	var p types.OHLC
	for i, ts := range result.Timestamp {
		t := time.Unix(ts, 0)
		if t.Before(start) || !t.Before(end) {
			continue
		}
		session := types.OHLC{
			Open:  at(quote.Open, i),
			High:  at(quote.High, i),
			Low:   at(quote.Low, i),
			Close: at(quote.Close, i),
		}
		if session.Empty() {
			continue
		}
		p = session
	}
	return p
}
