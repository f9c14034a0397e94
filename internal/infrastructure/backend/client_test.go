package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/resilience"
	"github.com/footylog/matchlog/internal/usecase"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *staticTokens) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *staticTokens) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func newTestClient(t *testing.T, serverURL string, tokens *staticTokens) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL: serverURL,
		Tokens:  tokens,
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{BaseURL: "", Logger: logging.NewNop()}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestEventsByDate(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.RequestURI()
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(usecase.DayEnvelope{
			WatchedIDs:  []string{"1"},
			NotifiedIDs: []string{"2"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &staticTokens{token: "tok-1"})

	env, err := client.EventsByDate(context.Background(), "2026-03-07")
	if err != nil {
		t.Fatalf("EventsByDate: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotPath != "/events?date=2026-03-07" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(env.WatchedIDs) != 1 || env.WatchedIDs[0] != "1" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestMissingTokenShortCircuits(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &staticTokens{})

	_, err := client.EventsByDate(context.Background(), "2026-03-07")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if requests != 0 {
		t.Fatalf("server saw %d requests, want 0", requests)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, usecase.ErrUnauthorized},
		{"not found", http.StatusNotFound, usecase.ErrNotFound},
		{"server error", http.StatusInternalServerError, usecase.ErrNetwork},
		{"bad request", http.StatusBadRequest, usecase.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, &staticTokens{token: "tok-1"})
			err := client.AddWatched(context.Background(), event.Event{ID: "1"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetNotifiedNotFoundMeansAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &staticTokens{token: "tok-1"})

	_, found, err := client.GetNotified(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetNotified: %v", err)
	}
	if found {
		t.Fatal("404 must mean absent, not error")
	}
}

func TestAddNotifiedPayload(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, &staticTokens{token: "tok-1"})
	ev := event.Event{ID: "e1", Date: "2026-03-08", HomeTeam: "Arsenal", AwayTeam: "Chelsea"}

	if err := client.AddNotified(context.Background(), ev, "ntf-7"); err != nil {
		t.Fatalf("AddNotified: %v", err)
	}
	if got["eventId"] != "e1" {
		t.Fatalf("eventId = %v", got["eventId"])
	}
	if got["notificationId"] != "ntf-7" {
		t.Fatalf("notificationId = %v", got["notificationId"])
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Tokens:  &staticTokens{token: "tok-1"},
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      resilience.DefaultCircuitBreakerConfig().OpenTimeout,
			HalfOpenMaxReq:   1,
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := client.AddWatched(context.Background(), event.Event{ID: "1"}); !errors.Is(err, usecase.ErrNetwork) {
			t.Fatalf("request %d: err = %v, want ErrNetwork", i, err)
		}
	}

	err = client.AddWatched(context.Background(), event.Event{ID: "1"})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable once open", err)
	}
}
