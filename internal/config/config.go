package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	// PostgresDSN empty selects the in-memory store.
	PostgresDSN string

	// RedisAddr set moves SystemStats to Redis.
	RedisAddr     string
	RedisStatsKey string

	AnalysisDelay   time.Duration
	RecoverOnStart  bool
	ShutdownTimeout time.Duration

	OTelMetrics     bool
	MetricsInterval time.Duration
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env error=%v", err)
	}

	return Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisStatsKey:   envOr("REDIS_STATS_KEY", "stats:current"),
		AnalysisDelay:   envDurationOr("ANALYSIS_DELAY", 2*time.Second),
		RecoverOnStart:  envBoolOr("RECOVER_ON_START", true),
		ShutdownTimeout: envDurationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
		OTelMetrics:     envBoolOr("OTEL_METRICS", false),
		MetricsInterval: envDurationOr("METRICS_INTERVAL", 30*time.Second),
	}
}

// String is safe to log.
func (c Config) String() string {
	store := "memory"
	if c.PostgresDSN != "" {
		store = redactDSN(c.PostgresDSN)
	}
	stats := "store"
	if c.RedisAddr != "" {
		stats = "redis://" + c.RedisAddr + "/" + c.RedisStatsKey
	}
	return "http_addr=" + c.HTTPAddr +
		" postgres=" + store +
		" stats=" + stats +
		" analysis_delay=" + c.AnalysisDelay.String() +
		" recover_on_start=" + strconv.FormatBool(c.RecoverOnStart) +
		" otel_metrics=" + strconv.FormatBool(c.OTelMetrics)
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envBoolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] %s=%q invalid bool, using %t", key, v, def)
		return def
	}
	return b
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[config] %s=%q invalid duration, using %s", key, v, def)
		return def
	}
	return d
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// redactDSN masks the password: user:pass@ -> user:****@
func redactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
