package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	FetchModeBrowser = "browser"
	FetchModeDirect  = "direct"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string
	CacheTTL   time.Duration

	TrackerAPIBase    string
	TrackerUpdateHash string
	FetchMode         string

	Browser BrowserConfig
}

// BrowserConfig controls the shared headless Chrome used for stealth fetches.
type BrowserConfig struct {
	ExecPath          string
	Headless          bool
	UserAgent         string
	Locale            string
	Timezone          string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	navTimeout, err := getEnvDuration("NAVIGATION_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	headless, err := getEnvBool("BROWSER_HEADLESS", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", "bf6.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CacheTTL:          cacheTTL,
		TrackerAPIBase:    getEnv("TRACKER_API_BASE", "https://api.tracker.gg/api/v2/bf6/standard"),
		TrackerUpdateHash: getEnv("TRACKER_UPDATE_HASH", "4B52B92031F7E041534F8A85C814734F"),
		FetchMode:         getEnv("FETCH_MODE", FetchModeBrowser),
		Browser: BrowserConfig{
			ExecPath:          getEnv("CHROME_PATH", ""),
			Headless:          headless,
			UserAgent:         getEnv("BROWSER_USER_AGENT", DefaultUserAgent),
			Locale:            getEnv("BROWSER_LOCALE", "en-US"),
			Timezone:          getEnv("BROWSER_TIMEZONE", "America/New_York"),
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: navTimeout,
		},
	}

	if cfg.FetchMode != FetchModeBrowser && cfg.FetchMode != FetchModeDirect {
		return nil, fmt.Errorf("FETCH_MODE must be %q or %q, got %q", FetchModeBrowser, FetchModeDirect, cfg.FetchMode)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("fetch_mode", cfg.FetchMode).
		Str("api_base", cfg.TrackerAPIBase).
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("navigation_timeout", cfg.Browser.NavigationTimeout).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

var Module = fx.Provide(Load)
