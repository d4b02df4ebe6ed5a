package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider is one upstream product search endpoint.
type Provider struct {
	Name string
	URL  string
}

type Config struct {
	AppEnv      string
	ServiceName string

	HTTPAddr    string
	DatabaseURL string
	DBMaxConns  int

	JWTSecret string
	JWTIssuer string

	// Anonymous identity
	AnonCookieSecret string
	AnonCookieTTL    time.Duration

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string

	// Redis & Caching
	RedisURL          string
	CacheTTLFeed      time.Duration
	CacheTTLSearch    time.Duration
	CacheMaxBytes     int
	CacheFeedMaxBytes int

	// Search providers
	SearchProviders    []Provider
	SearchDefaultLimit int
	SearchMaxLimit     int
	UpstreamTimeout    time.Duration
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration

	// LLM (OpenAI-compatible)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMVisionModel string
	LLMTimeout     time.Duration

	// S3/MinIO
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3UsePathStyle    bool
	S3Bucket          string
	PresignTTL        time.Duration
	MaxUploadSize     int64

	// Aggregation job
	AggregateLookback time.Duration

	// Tracing
	OTLPEndpoint string

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.ServiceName = getEnv("SERVICE_NAME", "discovery-service")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8086")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DBMaxConns = getIntEnv("DB_MAX_CONNS", 10)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")

	cfg.AnonCookieSecret = getEnv("ANON_COOKIE_SECRET", "dev-secret-change-in-prod")
	cfg.AnonCookieTTL = time.Duration(getIntEnv("ANON_COOKIE_TTL_DAYS", 365)) * 24 * time.Hour

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "discovery.events")

	// empty disables caching
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.CacheTTLFeed = getDuration("CACHE_TTL_FEED", 60*time.Second)
	cfg.CacheTTLSearch = getDuration("CACHE_TTL_SEARCH", 10*time.Minute)
	cfg.CacheMaxBytes = getIntEnv("CACHE_MAX_BYTES", 512*1024)
	cfg.CacheFeedMaxBytes = getIntEnv("CACHE_FEED_MAX_BYTES", 64*1024)

	providers, err := parseProviders(getEnv("SEARCH_PROVIDERS", ""))
	if err != nil {
		return nil, err
	}
	cfg.SearchProviders = providers
	cfg.SearchDefaultLimit = getIntEnv("SEARCH_DEFAULT_LIMIT", 20)
	cfg.SearchMaxLimit = getIntEnv("SEARCH_MAX_LIMIT", 50)
	cfg.UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", 4*time.Second)
	cfg.BreakerMaxFailures = getIntEnv("BREAKER_MAX_FAILURES", 5)
	cfg.BreakerOpenTimeout = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)

	cfg.LLMBaseURL = strings.TrimRight(getEnv("LLM_BASE_URL", ""), "/")
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", "")
	cfg.LLMModel = getEnv("LLM_MODEL", "gpt-4o-mini")
	cfg.LLMVisionModel = getEnv("LLM_VISION_MODEL", cfg.LLMModel)
	cfg.LLMTimeout = getDuration("LLM_TIMEOUT", 20*time.Second)

	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	cfg.S3Region = getEnv("S3_REGION", "us-east-1")
	cfg.S3UsePathStyle = getBool("S3_USE_PATH_STYLE", true)
	cfg.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.PresignTTL = getDuration("PRESIGN_TTL", 5*time.Minute)
	cfg.MaxUploadSize = int64(getIntEnv("MAX_UPLOAD_SIZE", 10*1024*1024))

	cfg.AggregateLookback = getDuration("AGGREGATE_LOOKBACK", time.Hour)

	cfg.OTLPEndpoint = getEnv("OTLP_ENDPOINT", "")

	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 100)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.AppEnv != "dev" && cfg.AnonCookieSecret == "dev-secret-change-in-prod" {
		return nil, fmt.Errorf("missing ANON_COOKIE_SECRET (required when APP_ENV != dev)")
	}
	if cfg.SearchMaxLimit < cfg.SearchDefaultLimit {
		cfg.SearchMaxLimit = cfg.SearchDefaultLimit
	}

	return cfg, nil
}

// parseProviders reads "name=url,name=url".
func parseProviders(raw string) ([]Provider, error) {
	if raw == "" {
		return nil, nil
	}
	var out []Provider
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid SEARCH_PROVIDERS entry %q (want name=url)", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate search provider %q", name)
		}
		seen[name] = true
		out = append(out, Provider{Name: name, URL: url})
	}
	return out, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
