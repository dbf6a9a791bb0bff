package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type GraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// ChunkingConfig parameterizes the chunker. Sizes are character counts.
type ChunkingConfig struct {
	MaxChunkSize int `toml:"max_chunk_size"`
	OverlapSize  int `toml:"overlap_size"`
}

// ExtractionConfig parameterizes the parallel extractor.
type ExtractionConfig struct {
	MaxConcurrency  int     `toml:"max_concurrency"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	MaxRetries      int     `toml:"max_retries"`
	MaxContentChars int     `toml:"max_content_chars"`
	Temperature     float32 `toml:"temperature"`
	MaxTokens       int     `toml:"max_tokens"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Graph      GraphConfig      `toml:"graph"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Extraction ExtractionConfig `toml:"extraction"`
	Server     ServerConfig     `toml:"server"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1",
			BaseURL:  "http://localhost:11434",
		},
		Graph: GraphConfig{
			URI: "bolt://localhost:7687",
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 4000,
			OverlapSize:  200,
		},
		Extraction: ExtractionConfig{
			MaxConcurrency:  4,
			TimeoutSeconds:  60,
			MaxRetries:      2,
			MaxContentChars: 6000,
			Temperature:     0.1,
			MaxTokens:       2000,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides credential- and endpoint-shaped settings from the
// environment so secrets stay out of the config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GRAPH_URI"); v != "" {
		c.Graph.URI = v
	}
	if v := os.Getenv("GRAPH_USER"); v != "" {
		c.Graph.User = v
	}
	if v := os.Getenv("GRAPH_PASSWORD"); v != "" {
		c.Graph.Password = v
	}
}

// Validate rejects parameter combinations the pipeline cannot run with.
// These are the only errors in the system that propagate to callers.
func (c *Config) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.OverlapSize < 0 {
		return fmt.Errorf("chunking.overlap_size must be non-negative, got %d", c.Chunking.OverlapSize)
	}
	if c.Chunking.OverlapSize >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking.overlap_size (%d) must be smaller than max_chunk_size (%d)",
			c.Chunking.OverlapSize, c.Chunking.MaxChunkSize)
	}
	if c.Extraction.MaxConcurrency <= 0 {
		return fmt.Errorf("extraction.max_concurrency must be positive, got %d", c.Extraction.MaxConcurrency)
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		return fmt.Errorf("extraction.timeout_seconds must be positive, got %d", c.Extraction.TimeoutSeconds)
	}
	if c.Extraction.MaxRetries < 0 {
		return fmt.Errorf("extraction.max_retries must be non-negative, got %d", c.Extraction.MaxRetries)
	}
	return nil
}
