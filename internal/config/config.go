// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package config loads the server's layered configuration: built-in
// defaults, an optional YAML file, and RAG_* environment overrides. The
// layering mirrors the drone client's viper-based loader, generalized from
// a handful of client settings to the full set the retrieval core needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved, typed configuration for one server process.
type Config struct {
	Environment string       `mapstructure:"environment"`
	Debug       bool         `mapstructure:"debug"`
	DataRoot    string       `mapstructure:"data_root"`
	API         APIConfig    `mapstructure:"api"`
	Embedding   ProviderConfig `mapstructure:"embedding"`
	LLM         ProviderConfig `mapstructure:"llm"`
	Chunking    ChunkingConfig `mapstructure:"chunking"`
	Retrieval   RetrievalConfig `mapstructure:"retrieval"`
	Workers     WorkerConfig `mapstructure:"workers"`
	Deadlines   DeadlineConfig `mapstructure:"deadlines"`
	FolderWatch FolderWatchConfig `mapstructure:"folder_watch"`
}

type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type ProviderConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

type ChunkingConfig struct {
	Strategy            string  `mapstructure:"strategy"` // "size" or "semantic"
	ChunkSize            int     `mapstructure:"chunk_size"`
	ChunkOverlap          int     `mapstructure:"chunk_overlap"`
	SimilarityThreshold  float64 `mapstructure:"similarity_threshold"`
}

type RetrievalConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	RerankEnabled       bool    `mapstructure:"rerank_enabled"`
	RerankTopK          int     `mapstructure:"rerank_top_k"`
	MaxFileSizeMB       int     `mapstructure:"max_file_size_mb"`
}

type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

type DeadlineConfig struct {
	Query        time.Duration `mapstructure:"query"`
	TextIngest   time.Duration `mapstructure:"text_ingest"`
	FileIngest   time.Duration `mapstructure:"file_ingest"`
	HealthProbe  time.Duration `mapstructure:"health_probe"`
	LLMTest      time.Duration `mapstructure:"llm_test"`
}

type FolderWatchConfig struct {
	CheckIntervalSeconds int  `mapstructure:"check_interval_seconds"`
	Recursive            bool `mapstructure:"recursive"`
}

// Load resolves configuration from defaults, an optional file at
// configPath (or ~/.hive-rag/config.yaml when empty), and RAG_* environment
// variables, in that priority order (lowest to highest).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		configDir := filepath.Join(home, ".hive-rag")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		v.SetConfigFile(filepath.Join(configDir, "config.yaml"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file present: defaults + environment only.
	}

	v.SetEnvPrefix("RAG")
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyLegacyProviderEnv(&cfg)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("debug", false)
	v.SetDefault("data_root", "./data")
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8081)
	v.SetDefault("embedding.provider", "mock")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("chunking.strategy", "size")
	v.SetDefault("chunking.chunk_size", 1000)
	v.SetDefault("chunking.chunk_overlap", 200)
	v.SetDefault("chunking.similarity_threshold", 0.6)
	v.SetDefault("retrieval.similarity_threshold", 0.2)
	v.SetDefault("retrieval.rerank_enabled", true)
	v.SetDefault("retrieval.rerank_top_k", 5)
	v.SetDefault("retrieval.max_file_size_mb", 50)
	v.SetDefault("workers.pool_size", 5)
	v.SetDefault("deadlines.query", 30*time.Second)
	v.SetDefault("deadlines.text_ingest", 120*time.Second)
	v.SetDefault("deadlines.file_ingest", 300*time.Second)
	v.SetDefault("deadlines.health_probe", 10*time.Second)
	v.SetDefault("deadlines.llm_test", 15*time.Second)
	v.SetDefault("folder_watch.check_interval_seconds", 30)
	v.SetDefault("folder_watch.recursive", true)
}

// bindEnv exposes the documented RAG_* variables explicitly so unknown
// keys are ignored rather than silently shadowing nested config via
// viper's automatic dotted-key translation.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("environment", "RAG_ENVIRONMENT")
	_ = v.BindEnv("debug", "RAG_DEBUG")
	_ = v.BindEnv("api.host", "RAG_API_HOST")
	_ = v.BindEnv("api.port", "RAG_API_PORT")
	_ = v.BindEnv("llm.provider", "RAG_LLM_PROVIDER")
	_ = v.BindEnv("llm.model", "RAG_LLM_MODEL")
	_ = v.BindEnv("llm.api_key", "RAG_LLM_API_KEY")
	_ = v.BindEnv("embedding.provider", "RAG_EMBEDDING_PROVIDER")
	_ = v.BindEnv("embedding.model", "RAG_EMBEDDING_MODEL")
}

// applyLegacyProviderEnv honors the provider-specific API key overrides
// (OPENAI_API_KEY, ANTHROPIC_API_KEY) read directly by earlier tooling,
// used when RAG_LLM_API_KEY is not set.
func applyLegacyProviderEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Redacted returns a copy of the config safe to expose via GET /config:
// non-secret fields only.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"environment": c.Environment,
		"api": map[string]any{
			"host": c.API.Host,
			"port": c.API.Port,
		},
		"embedding": map[string]any{
			"provider": c.Embedding.Provider,
			"model":    c.Embedding.Model,
		},
		"llm": map[string]any{
			"provider": c.LLM.Provider,
			"model":    c.LLM.Model,
		},
	}
}
