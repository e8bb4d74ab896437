// irail/client.go
package irail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/gewnthar/trainboard/config"
)

// Client talks to the iRail REST API. A Client is meant to be scoped to one
// invocation and released with Close; the rate limiter may be shared.
type Client struct {
	baseURL    string
	userAgent  string
	format     string
	lang       string
	maxRetries int
	retryDelay time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

type Option func(*Client)

// WithLimiter shares an outbound rate limiter between clients.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewLimiter returns a token bucket allowing perSecond requests with no burst.
func NewLimiter(perSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// NewClient builds a client from configuration.
func NewClient(cfg config.IRailConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("irail base URL is not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid irail base URL %q: %w", base, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perSecond := cfg.RequestsPerSec
	if perSecond <= 0 {
		perSecond = 3
	}

	c := &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		format:     orDefault(cfg.Format, "json"),
		lang:       orDefault(cfg.Lang, "en"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		limiter: NewLimiter(perSecond),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	return c, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	if c != nil && c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}

// BoardTime selects the moment a liveboard is requested for. The zero value means now.
// Date is ddmmyy and Time is hhmm, as the iRail API expects them.
type BoardTime struct {
	Date string
	Time string
}

// IsZero reports whether no moment was requested.
func (b BoardTime) IsZero() bool { return b.Date == "" && b.Time == "" }

// Validate checks the ddmmyy and hhmm formats.
func (b BoardTime) Validate() error {
	if b.Date != "" && !allDigits(b.Date, 6) {
		return fmt.Errorf("irail: date %q must be ddmmyy", b.Date)
	}
	if b.Time != "" && !allDigits(b.Time, 4) {
		return fmt.Errorf("irail: time %q must be hhmm", b.Time)
	}
	return nil
}

// GetLiveboard returns the departures for one station, from now or from at when set.
func (c *Client) GetLiveboard(ctx context.Context, stationID string, at BoardTime) (*Liveboard, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil, fmt.Errorf("irail: station id is required")
	}
	if err := at.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("id", stationID)
	if at.Date != "" {
		params.Set("date", at.Date)
	}
	if at.Time != "" {
		params.Set("time", at.Time)
	}

	var board Liveboard
	if err := c.getJSON(ctx, "/liveboard/", params, &board); err != nil {
		return nil, err
	}
	if board.StationInfo.ID == "" {
		board.StationInfo.ID = FlexString(stationID)
	}
	if board.StationInfo.Name == "" {
		board.StationInfo.Name = board.Station
	}
	return &board, nil
}

// GetStations returns every station known to the API.
func (c *Client) GetStations(ctx context.Context) ([]StationInfo, error) {
	var resp stationsResponse
	if err := c.getJSON(ctx, "/stations/", url.Values{}, &resp); err != nil {
		return nil, err
	}
	return resp.Station, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("format", c.format)
	params.Set("lang", c.lang)
	reqURL := c.baseURL + path + "?" + params.Encode()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries)),
		ctx,
	)
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return c.do(ctx, reqURL, out)
	}, policy, func(err error, wait time.Duration) {
		c.logger.Printf("WARN iRail: attempt %d for %s failed, retrying in %s: %v", attempt, reqURL, wait, err)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return &NetworkError{URL: reqURL, Timeout: errors.Is(ctxErr, context.DeadlineExceeded), Err: ctxErr}
		}
		return err
	}
	return nil
}

// do performs one attempt. Errors wrapped with backoff.Permanent are not retried.
func (c *Client) do(ctx context.Context, reqURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return backoff.Permanent(&NetworkError{URL: reqURL, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("irail: failed to build request for %s: %w", reqURL, err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{URL: reqURL, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		uerr := &UpstreamError{URL: reqURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if uerr.Retryable() {
			return uerr
		}
		return backoff.Permanent(uerr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &NetworkError{URL: reqURL, Timeout: true, Err: err}
		}
		return backoff.Permanent(&UpstreamError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		})
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
