// Package file loads pipeline configuration from a TOML file on disk.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultConcurrency  = 4
	DefaultChunkSize    = 1000
	DefaultProvider     = "openai"
	DefaultContextBytes = 600
)

// Config is the pipeline configuration.
type Config struct {
	// DataDir is where the SQLite index lives. Empty means the
	// per-user default.
	DataDir string `toml:"data_dir"`

	// Concurrency bounds parallel unit workers.
	Concurrency int `toml:"concurrency"`

	// ContextBytes bounds the document text passed as caption context.
	ContextBytes int `toml:"context_bytes"`

	Chunking   ChunkingConfig   `toml:"chunking"`
	Classifier ClassifierConfig `toml:"classifier"`
	Captioning ModelConfig      `toml:"captioning"`
	Embedding  ModelConfig      `toml:"embedding"`
	Budget     BudgetConfig     `toml:"budget"`
}

// ChunkingConfig holds text chunking settings.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int `toml:"chunk_size"`

	// MinChunk is the smallest window searched for a preferred
	// boundary.
	MinChunk int `toml:"min_chunk"`
}

// ClassifierConfig holds page complexity thresholds. Zero values fall
// back to the pipeline defaults.
type ClassifierConfig struct {
	MaxImageAreaRatio float64 `toml:"max_image_area_ratio"`
	MinCharsPerPage   int     `toml:"min_chars_per_page"`
	MinPrintableRatio float64 `toml:"min_printable_ratio"`
	MinWordlikeRatio  float64 `toml:"min_wordlike_ratio"`
}

// ModelConfig selects and configures an external model provider.
type ModelConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// APIKey authenticates against the provider. The environment
	// variable named in APIKeyEnv takes precedence when set.
	APIKey    string `toml:"api_key"`
	APIKeyEnv string `toml:"api_key_env"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model names the model to use.
	Model string `toml:"model"`
}

// Key resolves the API key, preferring the environment variable.
func (m ModelConfig) Key() string {
	if m.APIKeyEnv != "" {
		if v := os.Getenv(m.APIKeyEnv); v != "" {
			return v
		}
	}
	return m.APIKey
}

// BudgetConfig bounds external model calls. The budget is shared by
// every document ingested in one run of the process.
type BudgetConfig struct {
	// MaxCalls is the call ceiling for the run; 0 means unlimited.
	MaxCalls int `toml:"max_calls"`

	// CallsPerSecond throttles call issue rate; 0 disables.
	CallsPerSecond float64 `toml:"calls_per_second"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tessera", "config.toml"), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Concurrency:  DefaultConcurrency,
		ContextBytes: DefaultContextBytes,
		Chunking:     ChunkingConfig{ChunkSize: DefaultChunkSize},
		Captioning: ModelConfig{
			Provider:  DefaultProvider,
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Embedding: ModelConfig{
			Provider:  DefaultProvider,
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// Load reads configuration from path. A missing file yields the
// defaults; a present but malformed file is an error. Fields absent
// from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the configuration to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// fillDefaults restores defaults for fields explicitly zeroed in the
// file.
func (c *Config) fillDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ContextBytes <= 0 {
		c.ContextBytes = DefaultContextBytes
	}
	if c.Chunking.ChunkSize <= 0 {
		c.Chunking.ChunkSize = DefaultChunkSize
	}
	if c.Captioning.Provider == "" {
		c.Captioning.Provider = DefaultProvider
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultProvider
	}
}
