// Package config loads the application configuration from YAML, filling
// sensible defaults for anything the file leaves out. Secrets are never
// stored in the file; sections reference the environment variable that
// holds them.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible
// embedding endpoint. BaseURL may point at any compatible server, such
// as a local Ollama instance.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"` // "local" or "openai"
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// RedisStoreConfig contains connection details for the redis store.
type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	TTLSecs  int    `yaml:"ttl_secs"`
}

// SQLiteStoreConfig contains the file path for the sqlite store.
type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

// VectorStoreConfig selects and configures the vector store.
type VectorStoreConfig struct {
	Type   string             `yaml:"type"` // "memory", "redis" or "sqlite"
	Redis  *RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite *SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

// LLMConfig configures the chat model used for insight phrasing.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// WarehouseConfig points at the PostgreSQL warehouse. The connection
// string lives in an environment variable, never in the file.
type WarehouseConfig struct {
	ConnStringEnv string `yaml:"conn_string_env"`
}

// RAGConfig tunes retrieval and history validation.
type RAGConfig struct {
	ContextLimit        int     `yaml:"context_limit"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TimeoutSecs         int     `yaml:"timeout_secs"`
}

// InsightsConfig tunes insight selection.
type InsightsConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	Warehouse   WarehouseConfig   `yaml:"warehouse"`
	RAG         RAGConfig         `yaml:"rag"`
	Insights    InsightsConfig    `yaml:"insights"`
}

// Load reads a config from the given path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// APIKey resolves the embedder API key from the environment.
func (c *OpenAIEmbedderConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// APIKey resolves the chat model API key from the environment.
func (c *LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// ConnString resolves the warehouse connection string from the
// environment.
func (c *WarehouseConfig) ConnString() string {
	return os.Getenv(c.ConnStringEnv)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "local"},
		VectorStore: VectorStoreConfig{Type: "memory"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "local"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "redis" && cfg.VectorStore.Redis == nil {
		cfg.VectorStore.Redis = &RedisStoreConfig{Addr: "localhost:6379"}
	}
	if cfg.VectorStore.Type == "sqlite" && cfg.VectorStore.SQLite == nil {
		cfg.VectorStore.SQLite = &SQLiteStoreConfig{Path: "compintel.db"}
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Warehouse.ConnStringEnv == "" {
		cfg.Warehouse.ConnStringEnv = "COMPINTEL_DB_URL"
	}
	if cfg.RAG.ContextLimit == 0 {
		cfg.RAG.ContextLimit = 3
	}
	if cfg.RAG.SimilarityThreshold == 0 {
		cfg.RAG.SimilarityThreshold = 0.85
	}
	if cfg.RAG.TimeoutSecs == 0 {
		cfg.RAG.TimeoutSecs = 10
	}
	if cfg.Insights.MinConfidence == 0 {
		cfg.Insights.MinConfidence = 0.4
	}
}
