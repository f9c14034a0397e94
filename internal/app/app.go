// Package app assembles the service: repositories, provider clients, the
// usecase layer, and the HTTP server, all driven by config.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/footylog/matchlog/external/sportsdb"
	"github.com/footylog/matchlog/internal/config"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/infrastructure/backend"
	"github.com/footylog/matchlog/internal/infrastructure/notify"
	"github.com/footylog/matchlog/internal/infrastructure/repository/memory"
	"github.com/footylog/matchlog/internal/infrastructure/repository/sqlite"
	"github.com/footylog/matchlog/internal/interfaces/httpapi"
	"github.com/footylog/matchlog/internal/platform/cache"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/resilience"
	"github.com/footylog/matchlog/internal/usecase"
)

// NewHTTPServer builds the fully wired server. The returned cleanup closes
// whatever the wiring opened (currently the local store, when configured).
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cleanup := func() error { return nil }

	var (
		watchedRepo  watched.Repository
		notifiedRepo notified.Repository
		prefsRepo    prefs.Repository
		tokens       prefs.TokenStore
	)
	if cfg.StorePath != "" {
		db, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		cleanup = db.Close
		kv := sqlite.NewKVRepository(db)
		watchedRepo = sqlite.NewWatchedRepository(db)
		notifiedRepo = sqlite.NewNotifiedRepository(db)
		prefsRepo = kv
		tokens = kv
		logger.Info("local store opened", "path", cfg.StorePath)
	} else {
		memPrefs := memory.NewPrefsRepository()
		watchedRepo = memory.NewWatchedRepository()
		notifiedRepo = memory.NewNotifiedRepository()
		prefsRepo = memPrefs
		tokens = memPrefs
		logger.Info("no STORE_PATH set, using in-memory repositories")
	}

	var syncBackend usecase.SyncBackend
	if cfg.BackendEnabled {
		client, err := backend.NewClient(backend.ClientConfig{
			BaseURL: cfg.BackendBaseURL,
			Timeout: cfg.BackendTimeout,
			Tokens:  tokens,
			Logger:  logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.BackendCircuitEnabled,
				FailureThreshold: cfg.BackendCircuitFailureCount,
				OpenTimeout:      cfg.BackendCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.BackendCircuitHalfOpenMaxReq,
			},
		})
		if err != nil {
			_ = cleanup()
			return nil, nil, fmt.Errorf("build backend client: %w", err)
		}
		syncBackend = client
	}

	provider := sportsdb.NewClient(sportsdb.ClientConfig{
		BaseURL:    cfg.SportsDBBaseURL,
		APIKey:     cfg.SportsDBAPIKey,
		Timeout:    cfg.SportsDBTimeout,
		MaxRetries: cfg.SportsDBMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportsDBCircuitEnabled,
			FailureThreshold: cfg.SportsDBCircuitFailureCount,
			OpenTimeout:      cfg.SportsDBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportsDBCircuitHalfOpenMaxReq,
		},
	})

	store := cache.NewStore[usecase.DaySchedule](cfg.CacheTTL, time.Now)
	scheduler := notify.NewLocalScheduler(nil, logger)

	scheduleSvc := usecase.NewScheduleService(usecase.ScheduleServiceConfig{
		Provider:     provider,
		Backend:      syncBackend,
		Leagues:      cfg.Leagues,
		Store:        store,
		WatchedRepo:  watchedRepo,
		NotifiedRepo: notifiedRepo,
		PrefsRepo:    prefsRepo,
		Logger:       logger,
	})
	toggleSvc := usecase.NewToggleService(usecase.ToggleServiceConfig{
		WatchedRepo:  watchedRepo,
		NotifiedRepo: notifiedRepo,
		Backend:      syncBackend,
		Scheduler:    scheduler,
		Tokens:       tokens,
		Store:        store,
		Logger:       logger,
		ReminderLead: cfg.ReminderLead,
	})
	insightsSvc := usecase.NewInsightsService(watchedRepo, syncBackend, logger, nil)
	preferenceSvc := usecase.NewPreferenceService(prefsRepo, store, logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := toggleSvc.Hydrate(startupCtx); err != nil {
		logger.Warn("hydrate flag sets failed, starting empty", "error", err)
	}

	sweeper := notify.NewSweeper(notify.SweeperConfig{
		Repo:      notifiedRepo,
		Scheduler: scheduler,
		Lead:      cfg.ReminderLead,
		Workers:   cfg.SweepWorkers,
		Logger:    logger,
	})
	if _, err := scheduler.RequestPermission(startupCtx); err == nil {
		if err := sweeper.Sweep(startupCtx); err != nil {
			logger.Warn("reminder sweep failed", "error", err)
		}
	}

	handler := httpapi.NewHandler(scheduleSvc, toggleSvc, insightsSvc, preferenceSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}
