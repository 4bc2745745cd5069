package model

import "time"

// Config is the full application configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Store       StoreConfig       `yaml:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	LLM         LLMConfig         `yaml:"llm"`
	Server      ServerConfig      `yaml:"server"`
}

// HTTPConfig controls outbound fetches.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// CacheConfig controls the listing-page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// FetchMode selects how downloaded documents are handed to the extractor.
type FetchMode string

const (
	FetchModeBuffer   FetchMode = "buffer"   // keep the document in memory
	FetchModeTempFile FetchMode = "tempfile" // spool the document to a temp file
)

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	// BaseURL is the regulator domain that relative document hrefs resolve
	// against.
	BaseURL string `yaml:"base_url"`
	// Timezone names the location the Date/Time printed inside documents is
	// expressed in. Document timestamps are venue-local, never host-local.
	Timezone string `yaml:"timezone"`
	// GraceWindow extends the watermark backwards to catch documents
	// published late on the same day.
	GraceWindow time.Duration `yaml:"grace_window"`
	FetchMode   FetchMode     `yaml:"fetch_mode"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // "firestore" or "memory"
	ProjectID string `yaml:"project_id"`
}

// ConcurrencyConfig sizes the per-document worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles fetches per host.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LLMConfig configures the optional batch digest. The digest is disabled
// unless an API key is set and never affects the batch outcome.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ServerConfig configures the HTTP trigger surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "stewarding/0.3 (+https://github.com/pitwall/stewarding)",
			MaxBodyBytes: 20_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Ingest: IngestConfig{
			BaseURL:     "https://www.fia.com",
			Timezone:    "Europe/Paris",
			GraceWindow: 24 * time.Hour,
			FetchMode:   FetchModeBuffer,
		},
		Store: StoreConfig{
			Backend: "firestore",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
