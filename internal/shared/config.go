package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	BackendBase string
	BackendKey  string
	BackendRPS  int
	SessionTTL  time.Duration
	Compensate  bool

	// upper bound on one commit, independent of the client connection
	CommitTimeout time.Duration

	// reconciler
	ReconcileWorkers int
	ReconcileBatch   int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		LogLevel:         env("LOG_LEVEL", "info"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ":9100"),
		MySQLDSN:         os.Getenv("MYSQL_DSN"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		BackendBase:      env("BACKEND_BASE_URL", "http://localhost:5000/api"),
		BackendKey:       env("BACKEND_TOKEN", ""),
		BackendRPS:       atoi("BACKEND_RPS", 10),
		SessionTTL:       time.Duration(atoi("SESSION_TTL_SECONDS", 1800)) * time.Second,
		Compensate:       parseBool(os.Getenv("COMMIT_COMPENSATE"), true),
		CommitTimeout:    time.Duration(atoi("COMMIT_TIMEOUT_SECONDS", 60)) * time.Second,
		ReconcileWorkers: atoi("RECONCILE_WORKERS", 4),
		ReconcileBatch:   atoi("RECONCILE_BATCH", 100),
	}
	if c.BackendKey == "" {
		log.Warn().Msg("BACKEND_TOKEN is empty")
	}
	if c.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN is empty; commit journal disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// JournalDSN forces the driver options the commit journal depends on: DATE
// columns scan into time.Time only with parseTime, and ranges are UTC days.
func JournalDSN(raw string) (string, error) {
	cfg, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
