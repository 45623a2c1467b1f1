package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the RAG server.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds the HTTP front-end configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	UploadDir      string   `yaml:"upload_dir"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	AllowedExts    []string `yaml:"allowed_extensions"`
}

// ChunkingConfig holds document chunking parameters.
type ChunkingConfig struct {
	TargetSize int `yaml:"target_size"` // target chunk size in characters
	Overlap    int `yaml:"overlap"`     // overlap between chunks in characters
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model       string `yaml:"model"`       // e.g. "text-embedding-3-small"
	BaseURL     string `yaml:"base_url"`    // override for OpenAI-compatible endpoints
	APIKeyEnv   string `yaml:"api_key_env"` // environment variable for the API key
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"` // concurrent batch requests
	CacheSize   int    `yaml:"cache_size"`  // LRU entries for repeated texts
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Backend string       `yaml:"backend"` // "bolt", "qdrant", "memory"
	Bolt    BoltConfig   `yaml:"bolt"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// BoltConfig holds the local bbolt-backed store configuration.
type BoltConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig holds connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig selects and configures the chat backend.
type LLMConfig struct {
	Backend     string  `yaml:"backend"` // "ollama", "stub"
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Retries     int     `yaml:"retries"`
	BackoffSecs float64 `yaml:"backoff_secs"`
}

// RateLimitConfig holds admission-control configuration.
type RateLimitConfig struct {
	Backend     string `yaml:"backend"` // "redis", "memory"
	RedisURL    string `yaml:"redis_url"`
	WindowSecs  int    `yaml:"window_secs"`
	UploadLimit int    `yaml:"upload_limit"` // uploads per window per client
	AskLimit    int    `yaml:"ask_limit"`    // questions per window per client
}

// IndexingConfig holds the background indexing pool configuration.
type IndexingConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// IngestConfig holds CLI bulk-ingest file selection.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"},
			UploadDir:      ".uploads",
			MaxUploadBytes: 10 * 1024 * 1024,
			AllowedExts:    []string{".txt", ".md"},
		},
		Chunking: ChunkingConfig{
			TargetSize: 512,
			Overlap:    50,
		},
		Embedding: EmbeddingConfig{
			Provider:    "ollama",
			Model:       "nomic-embed-text",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   768,
			BatchSize:   64,
			Concurrency: 2,
			CacheSize:   512,
			TimeoutSecs: 60,
		},
		VectorStore: VectorStoreConfig{
			Backend: "bolt",
			Bolt:    BoltConfig{Path: filepath.Join("data", "index.db")},
			Qdrant: QdrantConfig{
				URL:         "http://localhost:6333",
				Collection:  "ragserver",
				TimeoutSecs: 15,
			},
		},
		LLM: LLMConfig{
			Backend:     "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1",
			TimeoutSecs: 30,
			Retries:     3,
			BackoffSecs: 1.0,
		},
		RateLimit: RateLimitConfig{
			Backend:     "memory",
			WindowSecs:  60,
			UploadLimit: 5,
			AskLimit:    20,
		},
		Indexing: IndexingConfig{
			Workers:   2,
			QueueSize: 64,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, applying environment
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragserver.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragserver.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overrides deploy-specific settings from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.Server.AllowedOrigins = origins
		}
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Server.UploadDir = v
	}
	if v, ok := envInt64("MAX_UPLOAD_SIZE"); ok {
		c.Server.MaxUploadBytes = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RateLimit.Backend = "redis"
		c.RateLimit.RedisURL = v
	}
	if v, ok := envInt("RATE_LIMIT_WINDOW"); ok {
		c.RateLimit.WindowSecs = v
	}
	if v, ok := envInt("UPLOAD_RATE_LIMIT"); ok {
		c.RateLimit.UploadLimit = v
	}
	if v, ok := envInt("ASK_RATE_LIMIT"); ok {
		c.RateLimit.AskLimit = v
	}
	if v := os.Getenv("LLM_BACKEND"); v != "" {
		c.LLM.Backend = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(name string) (int64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
