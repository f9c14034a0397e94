package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                        string
	ServiceName                   string
	ServiceVersion                string
	HTTPAddr                      string
	ReadTimeout                   time.Duration
	WriteTimeout                  time.Duration
	CORSAllowedOrigins            []string
	LogLevel                      logging.Level
	CacheTTL                      time.Duration
	StorePath                     string
	Leagues                       []event.LeagueConfig
	ReminderLead                  time.Duration
	SweepWorkers                  int
	SportsDBBaseURL               string
	SportsDBAPIKey                string
	SportsDBTimeout               time.Duration
	SportsDBMaxRetries            int
	SportsDBCircuitEnabled        bool
	SportsDBCircuitFailureCount   int
	SportsDBCircuitOpenTimeout    time.Duration
	SportsDBCircuitHalfOpenMaxReq int
	BackendEnabled                bool
	BackendBaseURL                string
	BackendTimeout                time.Duration
	BackendCircuitEnabled         bool
	BackendCircuitFailureCount    int
	BackendCircuitOpenTimeout     time.Duration
	BackendCircuitHalfOpenMaxReq  int
	UptraceEnabled                bool
	UptraceDSN                    string
	PyroscopeEnabled              bool
	PyroscopeServerAddress        string
	PyroscopeAppName              string
	PyroscopeAuthToken            string
	PyroscopeUploadRate           time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	reminderLead, err := time.ParseDuration(getEnv("REMINDER_LEAD", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REMINDER_LEAD: %w", err)
	}
	if reminderLead <= 0 {
		return Config{}, fmt.Errorf("REMINDER_LEAD must be > 0")
	}

	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_WORKERS: %w", err)
	}
	if sweepWorkers < 1 {
		return Config{}, fmt.Errorf("SWEEP_WORKERS must be >= 1")
	}

	leagues, err := parseLeagues(getEnv("MATCHLOG_LEAGUES", defaultLeagues))
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCHLOG_LEAGUES: %w", err)
	}
	if len(leagues) == 0 {
		return Config{}, fmt.Errorf("MATCHLOG_LEAGUES cannot be empty")
	}

	sportsDBTimeout, err := time.ParseDuration(getEnv("SPORTSDB_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_TIMEOUT: %w", err)
	}
	if sportsDBTimeout <= 0 {
		return Config{}, fmt.Errorf("SPORTSDB_TIMEOUT must be > 0")
	}
	sportsDBMaxRetries, err := getEnvAsInt("SPORTSDB_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_MAX_RETRIES: %w", err)
	}
	if sportsDBMaxRetries < 0 {
		return Config{}, fmt.Errorf("SPORTSDB_MAX_RETRIES must be >= 0")
	}
	sportsDBCircuitEnabled, err := strconv.ParseBool(getEnv("SPORTSDB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_ENABLED: %w", err)
	}
	sportsDBCircuitFailureCount, err := getEnvAsInt("SPORTSDB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sportsDBCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sportsDBCircuitOpenTimeout, err := time.ParseDuration(getEnv("SPORTSDB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if sportsDBCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	sportsDBCircuitHalfOpenMaxReq, err := getEnvAsInt("SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sportsDBCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	backendEnabled, err := strconv.ParseBool(getEnv("BACKEND_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_ENABLED: %w", err)
	}
	backendBaseURL := strings.TrimSpace(getEnv("BACKEND_BASE_URL", ""))
	if backendEnabled && backendBaseURL == "" {
		return Config{}, fmt.Errorf("BACKEND_BASE_URL is required when BACKEND_ENABLED=true")
	}
	backendTimeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_TIMEOUT: %w", err)
	}
	if backendTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT must be > 0")
	}
	backendCircuitEnabled, err := strconv.ParseBool(getEnv("BACKEND_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_CIRCUIT_ENABLED: %w", err)
	}
	backendCircuitFailureCount, err := getEnvAsInt("BACKEND_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if backendCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("BACKEND_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	backendCircuitOpenTimeout, err := time.ParseDuration(getEnv("BACKEND_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if backendCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	backendCircuitHalfOpenMaxReq, err := getEnvAsInt("BACKEND_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if backendCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("BACKEND_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:                        appEnv,
		ServiceName:                   getEnv("APP_SERVICE_NAME", "matchlog-api"),
		ServiceVersion:                getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                      getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                   readTimeout,
		WriteTimeout:                  writeTimeout,
		CORSAllowedOrigins:            splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                      parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		CacheTTL:                      cacheTTL,
		StorePath:                     strings.TrimSpace(getEnv("STORE_PATH", "")),
		Leagues:                       leagues,
		ReminderLead:                  reminderLead,
		SweepWorkers:                  sweepWorkers,
		SportsDBBaseURL:               strings.TrimSpace(getEnv("SPORTSDB_BASE_URL", "https://www.thesportsdb.com/api/v1/json")),
		SportsDBAPIKey:                strings.TrimSpace(getEnv("SPORTSDB_API_KEY", "")),
		SportsDBTimeout:               sportsDBTimeout,
		SportsDBMaxRetries:            sportsDBMaxRetries,
		SportsDBCircuitEnabled:        sportsDBCircuitEnabled,
		SportsDBCircuitFailureCount:   sportsDBCircuitFailureCount,
		SportsDBCircuitOpenTimeout:    sportsDBCircuitOpenTimeout,
		SportsDBCircuitHalfOpenMaxReq: sportsDBCircuitHalfOpenMaxReq,
		BackendEnabled:                backendEnabled,
		BackendBaseURL:                backendBaseURL,
		BackendTimeout:                backendTimeout,
		BackendCircuitEnabled:         backendCircuitEnabled,
		BackendCircuitFailureCount:    backendCircuitFailureCount,
		BackendCircuitOpenTimeout:     backendCircuitOpenTimeout,
		BackendCircuitHalfOpenMaxReq:  backendCircuitHalfOpenMaxReq,
		UptraceEnabled:                uptraceEnabled,
		UptraceDSN:                    uptraceDSN,
		PyroscopeEnabled:              pyroscopeEnabled,
		PyroscopeServerAddress:        pyroscopeServerAddress,
		PyroscopeAuthToken:            strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:           pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// defaultLeagues covers the major European competitions plus the continental
// cups, keyed by the provider's league ids.
const defaultLeagues = "4328:English Premier League,4335:Spanish La Liga,4331:German Bundesliga,4332:Italian Serie A,4334:French Ligue 1,4480:UEFA Champions League,4481:UEFA Europa League"

func parseLeagues(raw string) ([]event.LeagueConfig, error) {
	parts := strings.Split(raw, ",")
	out := make([]event.LeagueConfig, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid league item %q, expected id:name", item)
		}

		id := strings.TrimSpace(segments[0])
		name := strings.TrimSpace(segments[1])
		if id == "" || name == "" {
			return nil, fmt.Errorf("empty id or name in league item %q", item)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate league id %q", id)
		}
		seen[id] = struct{}{}

		out = append(out, event.LeagueConfig{ID: id, Name: name})
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
