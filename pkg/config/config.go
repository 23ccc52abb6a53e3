package config

import (
	"fmt"
	"time"
)

// GatewayConfig is the root configuration for the gateway service.
type GatewayConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Security   SecurityConfig   `yaml:"security"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Moderation ModerationConfig `yaml:"moderation"`
	Cache      CacheConfig      `yaml:"cache"`
	Memory     MemoryConfig     `yaml:"memory"`
	Janitor    JanitorConfig    `yaml:"janitor"`
	Documents  DocumentsConfig  `yaml:"documents"`
	LLM        LLMConfig        `yaml:"llm"`
	Chroma     ChromaConfig     `yaml:"chroma"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port                   int `yaml:"port"`
	ReadTimeoutSeconds     int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`
}

// ReadTimeout returns the read timeout as a duration.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// SecurityConfig controls API key authentication.
type SecurityConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// ModerationConfig controls input validation and jailbreak screening.
type ModerationConfig struct {
	JailbreakProtection bool   `yaml:"jailbreak_protection"`
	MaxInputLength      int    `yaml:"max_input_length"`
	PatternsPath        string `yaml:"patterns_path,omitempty"`
}

// CacheConfig controls the RAG answer cache.
type CacheConfig struct {
	MaxEntries     int    `yaml:"max_entries"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
	EvictionPolicy string `yaml:"eviction_policy"`
}

// TTL returns the cache entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MemoryConfig controls per-conversation history windows.
type MemoryConfig struct {
	MaxMessages int `yaml:"max_messages"`
}

// JanitorConfig controls the background sweep of idle state. A zero
// interval disables the sweep.
type JanitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxIdleSeconds  int `yaml:"max_idle_seconds"`
}

// Enabled reports whether the janitor should run.
func (c JanitorConfig) Enabled() bool { return c.IntervalSeconds > 0 }

// Interval returns the sweep period as a duration.
func (c JanitorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// MaxIdle returns the idle cutoff as a duration.
func (c JanitorConfig) MaxIdle() time.Duration {
	return time.Duration(c.MaxIdleSeconds) * time.Second
}

// DocumentsConfig scopes document ingestion. Load patterns are resolved
// inside Root and may never reach outside it.
type DocumentsConfig struct {
	Root string `yaml:"root"`
}

// LLMConfig points at the OpenAI-compatible completion endpoint.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
}

// ChromaConfig points at the Chroma vector store.
type ChromaConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Tenant     string `yaml:"tenant"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a config with every field set to its built-in default.
// Parsed YAML overlays on top of this.
func Default() *GatewayConfig {
	return &GatewayConfig{
		Server: ServerConfig{
			Port:                   8080,
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    120,
			ShutdownTimeoutSeconds: 15,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Moderation: ModerationConfig{
			JailbreakProtection: true,
			MaxInputLength:      10000,
		},
		Cache: CacheConfig{
			MaxEntries:     500,
			TTLSeconds:     600,
			EvictionPolicy: "lru",
		},
		Memory: MemoryConfig{
			MaxMessages: 20,
		},
		Janitor: JanitorConfig{
			MaxIdleSeconds: 1800,
		},
		Documents: DocumentsConfig{
			Root: "documents",
		},
		LLM: LLMConfig{
			Endpoint: "http://localhost:11434/v1",
			Model:    "llama3.2",
		},
		Chroma: ChromaConfig{
			Endpoint:   "http://localhost:8000",
			Tenant:     "default_tenant",
			Database:   "default_database",
			Collection: "documents",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects configurations the gateway cannot start with.
func (c *GatewayConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Security.Enabled && c.Security.APIKey == "" {
		return fmt.Errorf("security.api_key is required when security.enabled is true")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.Moderation.MaxInputLength <= 0 {
		return fmt.Errorf("moderation.max_input_length must be positive, got %d", c.Moderation.MaxInputLength)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds)
	}
	switch c.Cache.EvictionPolicy {
	case "fifo", "lru", "lfu":
	default:
		return fmt.Errorf("cache.eviction_policy must be one of fifo, lru, lfu, got %q", c.Cache.EvictionPolicy)
	}
	if c.Memory.MaxMessages <= 0 {
		return fmt.Errorf("memory.max_messages must be positive, got %d", c.Memory.MaxMessages)
	}
	if c.Janitor.IntervalSeconds < 0 {
		return fmt.Errorf("janitor.interval_seconds must not be negative, got %d", c.Janitor.IntervalSeconds)
	}
	if c.Janitor.Enabled() && c.Janitor.MaxIdleSeconds <= 0 {
		return fmt.Errorf("janitor.max_idle_seconds must be positive when the janitor is enabled, got %d", c.Janitor.MaxIdleSeconds)
	}
	if c.Documents.Root == "" {
		return fmt.Errorf("documents.root is required")
	}
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Chroma.Endpoint == "" {
		return fmt.Errorf("chroma.endpoint is required")
	}
	return nil
}
