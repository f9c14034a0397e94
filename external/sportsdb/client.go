// Package sportsdb is the client for the third-party sports-data provider
// in the local-only mode: one events-by-day query per league, raw records
// handed to the event normalizer untouched.
package sportsdb

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/resilience"
	"github.com/footylog/matchlog/internal/usecase"
)

const defaultBaseURL = "https://www.thesportsdb.com/api/v1/json"

var errProviderTransient = crerr.New("sportsdb transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = "3" // provider's shared free-tier key
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type eventsDayEnvelope struct {
	Events []event.Raw `json:"events"`
}

// EventsByDay fetches one league's fixtures for a calendar day. The
// provider answers "events": null for an empty day, which comes back as an
// empty slice here.
func (c *Client) EventsByDay(ctx context.Context, date string, league event.LeagueConfig) ([]event.Raw, error) {
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("%w: date is required", usecase.ErrInvalidInput)
	}
	if strings.TrimSpace(league.ID) == "" {
		return nil, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}

	var envelope eventsDayEnvelope
	if err := c.doJSON(ctx, "/eventsday.php", map[string]string{
		"d": date,
		"l": league.ID,
	}, &envelope); err != nil {
		return nil, fmt.Errorf("fetch events for league %s on %s: %w", league.ID, date, err)
	}

	return envelope.Events, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsdb circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sports data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + "/" + c.apiKey + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	flightKey := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errProviderTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errProviderTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errProviderTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrNetwork, resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("provider request failed")
	}
	c.logger.WarnContext(ctx, "sportsdb request failed", "url", redactKey(fullURL, c.apiKey), "error", lastErr)
	return nil, fmt.Errorf("%w: %w", usecase.ErrNetwork, lastErr)
}

// Only transient failures trip the breaker; a 4xx answer means the
// provider is up and talking.
func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errProviderTransient)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
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

func redactKey(fullURL, key string) string {
	if key == "" {
		return fullURL
	}
	return strings.ReplaceAll(fullURL, "/"+key+"/", "/***/")
}
