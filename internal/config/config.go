package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends. Each one accepts exactly one reference scheme.
const (
	StorageGCS    = "gcs"
	StorageS3     = "s3"
	StorageAzure  = "azure"
	StorageMemory = "memory"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	LogFormat          string

	Gemini    GeminiConfig
	Analysis  AnalysisConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Geocoder  GeocoderConfig
	RateLimit RateLimitConfig

	AllowedOrigins   []string
	RecentPostsDelay time.Duration
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AnalysisConfig is the read-only configuration shared by every pipeline run.
type AnalysisConfig struct {
	InlineMaxImageBytes int
	MaxImageLongEdge    int
	MaxImagePixels      int
	JPEGQuality         int
	GroundingEnabled    bool
	FetchTimeout        time.Duration
}

type StorageConfig struct {
	Backend      string
	Bucket       string
	AWSRegion    string
	AzureAccount string
	AzureKey     string
	SignedURLTTL time.Duration
}

type DatabaseConfig struct {
	URL         string
	AutoMigrate bool
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Language  string
	Timeout   time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	httpTimeout := parseDurationOrDefault("HTTP_TIMEOUT", 20*time.Second)

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 32*1024*1024),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "json"),
		Gemini: GeminiConfig{
			APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: parseDurationOrDefault("MODEL_TIMEOUT", 60*time.Second),
		},
		Analysis: AnalysisConfig{
			InlineMaxImageBytes: int(parseIntOrDefault("INLINE_MAX_IMAGE_BYTES", 15_000_000)),
			MaxImageLongEdge:    int(parseIntOrDefault("MAX_IMAGE_LONG_EDGE", 1600)),
			MaxImagePixels:      int(parseIntOrDefault("MAX_IMAGE_PIXELS", 89_478_485)),
			JPEGQuality:         int(parseIntOrDefault("JPEG_QUALITY", 90)),
			GroundingEnabled:    parseBoolOrDefault("GROUNDING_ENABLED", true),
			FetchTimeout:        httpTimeout,
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageGCS)),
			Bucket:       getEnvOrDefault("STORAGE_BUCKET", os.Getenv("GCS_BUCKET")),
			AWSRegion:    os.Getenv("AWS_REGION"),
			AzureAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureKey:     os.Getenv("AZURE_STORAGE_KEY"),
			SignedURLTTL: parseDurationOrDefault("SIGNED_URL_TTL", 15*time.Minute),
		},
		Database: DatabaseConfig{
			URL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
			AutoMigrate: parseBoolOrDefault("DB_AUTO_MIGRATE", true),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   strings.TrimRight(getEnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"), "/"),
			UserAgent: getEnvOrDefault("GEOCODER_USER_AGENT", "image-discovery-go/1.0"),
			Language:  getEnvOrDefault("GEOCODER_LANGUAGE", "ja"),
			Timeout:   httpTimeout,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: parseFloatOrDefault("RATE_LIMIT_RPS", 2),
			Burst:             int(parseIntOrDefault("RATE_LIMIT_BURST", 5)),
		},
		AllowedOrigins:   parseListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RecentPostsDelay: parseDurationOrDefault("RECENT_POSTS_DELAY", 15*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.Gemini.Timeout <= 0 || c.Analysis.FetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, model=%s, http=%s)",
			c.RequestTimeout, c.Gemini.Timeout, c.Analysis.FetchTimeout)
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Analysis.InlineMaxImageBytes <= 0 {
		return fmt.Errorf("INLINE_MAX_IMAGE_BYTES must be > 0 (got %d)", c.Analysis.InlineMaxImageBytes)
	}
	if c.Analysis.MaxImageLongEdge <= 0 {
		return fmt.Errorf("MAX_IMAGE_LONG_EDGE must be > 0 (got %d)", c.Analysis.MaxImageLongEdge)
	}
	if c.Analysis.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.Analysis.MaxImagePixels)
	}
	if c.Analysis.JPEGQuality < 1 || c.Analysis.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100 (got %d)", c.Analysis.JPEGQuality)
	}
	switch c.Storage.Backend {
	case StorageGCS, StorageS3, StorageAzure, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %q", c.Storage.Backend)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be > 0 (got rps=%v, burst=%d)", c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
