// Package config loads application configuration from file, environment
// variables, and defaults.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Mongo document store configuration
	Mongo MongoConfig `mapstructure:"mongo"`

	// Redis search configuration
	Redis RedisConfig `mapstructure:"redis"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Retrieval configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval"`

	// Graph configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// MongoConfig holds document store configuration.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
	// VectorIndex is the Atlas vector search index name used by the
	// Mongo-backed vector store.
	VectorIndex string `mapstructure:"vector_index"`
}

// RedisConfig holds Redis search configuration.
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LLMConfig holds LLM configuration for answer synthesis and extraction.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai or openai-compatible
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions int    `mapstructure:"dimensions"`
	// MaxChars is the deterministic character budget applied before any
	// embedding call.
	MaxChars int `mapstructure:"max_chars"`
}

// RetrievalConfig holds hybrid retrieval tuning.
type RetrievalConfig struct {
	// Backend selects the active tier at construction time:
	// "redis", "mongo", or "memory".
	Backend string `mapstructure:"backend"`
	// Alpha is the vector-vs-keyword blend weight.
	Alpha float64 `mapstructure:"alpha"`
	// YearWeight is the recency bonus weight applied by the reranker.
	YearWeight float64 `mapstructure:"year_weight"`
	// BackendTimeout bounds each external call, in seconds.
	BackendTimeout int `mapstructure:"backend_timeout"`
}

// GraphConfig holds knowledge graph configuration.
type GraphConfig struct {
	// SnapshotPath is the native snapshot file the server loads at start.
	SnapshotPath string `mapstructure:"snapshot_path"`
	// ExportDir is where graph build artifacts are written.
	ExportDir string `mapstructure:"export_dir"`
}

// CacheConfig holds the local article cache configuration.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking around the
// embedding backend.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017/")
	viper.SetDefault("mongo.database", "astrabio")
	viper.SetDefault("mongo.collection", "articles")
	viper.SetDefault("mongo.vector_index", "vector_index")

	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("redis.index_name", "idx:articles")
	viper.SetDefault("redis.key_prefix", "article:")

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 500)

	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 768)
	viper.SetDefault("embedding.max_chars", 40000)

	viper.SetDefault("retrieval.backend", "redis")
	viper.SetDefault("retrieval.alpha", 0.7)
	viper.SetDefault("retrieval.year_weight", 0.1)
	viper.SetDefault("retrieval.backend_timeout", 15)

	viper.SetDefault("graph.export_dir", "graphs")

	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("cache.path", fmt.Sprintf("%s/.astrabio/cache", home))
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.astrabio/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if db := os.Getenv("MONGODB_DATABASE"); db != "" {
		config.Mongo.Database = db
	}
	if coll := os.Getenv("MONGODB_COLLECTION"); coll != "" {
		config.Mongo.Collection = coll
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		config.Redis.URL = url
	}
	if user := os.Getenv("REDIS_USERNAME"); user != "" {
		config.Redis.Username = user
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		config.Redis.Password = pass
	}

	if backend := os.Getenv("RETRIEVAL_BACKEND"); backend != "" {
		config.Retrieval.Backend = backend
	}

	if path := os.Getenv("GRAPH_PATH"); path != "" {
		config.Graph.SnapshotPath = path
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
