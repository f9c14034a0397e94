// Package backend is the client for the authenticated sync API: day
// schedules arrive in a single envelope, watched/notified mutations are
// reconciled against it, and any 401 surfaces as the dedicated
// authentication error kind.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/resilience"
	"github.com/footylog/matchlog/internal/usecase"
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Tokens         prefs.TokenStore
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         prefs.TokenStore
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, crerr.Wrap(err, "invalid backend base URL")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		tokens:         cfg.Tokens,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

func (c *Client) EventsByDate(ctx context.Context, date string) (usecase.DayEnvelope, error) {
	var envelope usecase.DayEnvelope
	err := c.do(ctx, http.MethodGet, "/events?date="+url.QueryEscape(date), nil, &envelope)
	if err != nil {
		return usecase.DayEnvelope{}, err
	}
	return envelope, nil
}

type watchedListEnvelope struct {
	Events []watched.WatchedEvent `json:"events"`
}

func (c *Client) ListWatched(ctx context.Context) ([]watched.WatchedEvent, error) {
	var envelope watchedListEnvelope
	if err := c.do(ctx, http.MethodGet, "/watched/list", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Events, nil
}

func (c *Client) AddWatched(ctx context.Context, ev event.Event) error {
	return c.do(ctx, http.MethodPost, "/watched", ev, nil)
}

func (c *Client) RemoveWatched(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/watched", map[string]string{"eventId": eventID}, nil)
}

type notifiedPayload struct {
	event.Event
	NotificationID string `json:"notificationId"`
}

func (c *Client) AddNotified(ctx context.Context, ev event.Event, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/notified", notifiedPayload{Event: ev, NotificationID: notificationID}, nil)
}

func (c *Client) RemoveNotified(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodDelete, "/notified", map[string]string{"eventId": eventID}, nil)
}

func (c *Client) GetNotified(ctx context.Context, eventID string) (notified.Registration, bool, error) {
	var reg notified.Registration
	err := c.do(ctx, http.MethodGet, "/notified?eventId="+url.QueryEscape(eventID), nil, &reg)
	if err != nil {
		if crerr.Is(err, usecase.ErrNotFound) {
			return notified.Registration{}, false, nil
		}
		return notified.Registration{}, false, err
	}
	return reg, true, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "backend circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sync backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var body io.Reader
	if payload != nil {
		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
			return crerr.Wrap(err, "marshal request payload")
		}
		body = bytes.NewReader(buf.B)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "application/json")
	if payload != nil {
		req.Header.Set("content-type", "application/json")
	}
	if c.tokens != nil {
		token, tokenErr := c.tokens.Token(ctx)
		if tokenErr != nil {
			return crerr.Wrap(tokenErr, "load session token")
		}
		if token == "" {
			return fmt.Errorf("%w: no session token stored", usecase.ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordOutcome(false)
		return fmt.Errorf("%w: send request: %v", usecase.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.recordOutcome(false)
		return fmt.Errorf("%w: read response body: %v", usecase.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.recordOutcome(true)
		return fmt.Errorf("%w: backend rejected session token", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		c.recordOutcome(true)
		return fmt.Errorf("%w: %s %s", usecase.ErrNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.recordOutcome(resp.StatusCode < 500)
		return fmt.Errorf("%w: backend status=%d body=%s", usecase.ErrNetwork, resp.StatusCode, abbreviateBody(raw))
	}

	c.recordOutcome(true)
	if target == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode backend payload")
	}
	return nil
}

func (c *Client) recordOutcome(success bool) {
	if !c.circuitEnabled {
		return
	}
	if success {
		c.breaker.RecordSuccess()
	} else {
		c.breaker.RecordFailure()
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
