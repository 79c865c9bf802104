// Package config loads bookrag settings from defaults, an optional YAML file
// and BOOKRAG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Yates-Labs/bookrag/internal/answer"
	"github.com/Yates-Labs/bookrag/internal/orchestrator"
	"github.com/Yates-Labs/bookrag/internal/rag"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	envPrefix      = "BOOKRAG"
	configName     = "bookrag"
	fallbackAPIKey = "OPENAI_API_KEY"
)

// Config holds all configuration for the application
type Config struct {
	Document  DocumentConfig  `mapstructure:"document" yaml:"document"`
	Chunking  ChunkingConfig  `mapstructure:"chunking" yaml:"chunking"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Vector    VectorConfig    `mapstructure:"vector" yaml:"vector"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// DocumentConfig describes the novel being indexed
type DocumentConfig struct {
	PDFPath string `mapstructure:"pdf_path" yaml:"pdf_path" validate:"required"`
	Title   string `mapstructure:"title" yaml:"title" validate:"required"`
	Author  string `mapstructure:"author" yaml:"author"`
}

// ChunkingConfig holds splitter settings, measured in code points
type ChunkingConfig struct {
	ChunkSize    int `mapstructure:"chunk_size" yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int `mapstructure:"chunk_overlap" yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Model     string `mapstructure:"model" yaml:"model" validate:"required"`
	Dimension int    `mapstructure:"dimension" yaml:"dimension" validate:"gt=0"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size" validate:"gt=0"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// LLMConfig holds chat model configuration
type LLMConfig struct {
	Model       string  `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// VectorConfig holds vector database configuration
type VectorConfig struct {
	Type       string       `mapstructure:"type" yaml:"type" validate:"oneof=local milvus"` // local, milvus
	PersistDir string       `mapstructure:"persist_dir" yaml:"persist_dir" validate:"required_if=Type local"`
	Collection string       `mapstructure:"collection" yaml:"collection" validate:"required"`
	Milvus     MilvusConfig `mapstructure:"milvus" yaml:"milvus"`
}

// MilvusConfig holds settings used when vector.type is milvus
type MilvusConfig struct {
	Address        string `mapstructure:"address" yaml:"address" validate:"required"`
	IndexType      string `mapstructure:"index_type" yaml:"index_type"`
	MetricType     string `mapstructure:"metric_type" yaml:"metric_type" validate:"oneof=COSINE L2 IP"`
	M              int    `mapstructure:"m" yaml:"m" validate:"gt=0"`
	EfConstruction int    `mapstructure:"ef_construction" yaml:"ef_construction" validate:"gt=0"`
}

// RetrievalConfig holds query-time settings
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k" yaml:"top_k" validate:"gt=0"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gt=0,lte=65535"`
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	rc := orchestrator.DefaultRAGConfig()
	milvus := rag.DefaultMilvusConfig()

	return &Config{
		Document: DocumentConfig{
			PDFPath: rc.PDFPath,
			Title:   rc.Book.Title,
			Author:  rc.Book.Author,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    rc.ChunkSize,
			ChunkOverlap: rc.ChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			Model:     rc.EmbedderConfig.Model,
			Dimension: rc.EmbedderConfig.Dimension,
			BatchSize: rc.BatchSize,
		},
		LLM: LLMConfig{
			Model:       rc.LLMConfig.Model,
			Temperature: rc.LLMConfig.Temperature,
			MaxTokens:   rc.LLMConfig.MaxTokens,
		},
		Vector: VectorConfig{
			Type:       rc.VectorType,
			PersistDir: rc.LocalConfig.PersistDir,
			Collection: rc.LocalConfig.CollectionName,
			Milvus: MilvusConfig{
				Address:        "localhost:19530",
				IndexType:      milvus.IndexType,
				MetricType:     milvus.MetricType,
				M:              milvus.M,
				EfConstruction: milvus.EfConstruction,
			},
		},
		Retrieval: RetrievalConfig{
			TopK: rc.TopK,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8501,
		},
	}
}

// keys lists every setting so environment variables can override it
var keys = []string{
	"document.pdf_path", "document.title", "document.author",
	"chunking.chunk_size", "chunking.chunk_overlap",
	"embedding.model", "embedding.dimension", "embedding.batch_size", "embedding.api_key", "embedding.base_url",
	"llm.model", "llm.temperature", "llm.max_tokens", "llm.api_key", "llm.base_url",
	"vector.type", "vector.persist_dir", "vector.collection",
	"vector.milvus.address", "vector.milvus.index_type", "vector.milvus.metric_type",
	"vector.milvus.m", "vector.milvus.ef_construction",
	"retrieval.top_k",
	"server.host", "server.port",
}

// Load loads configuration from file and environment. An empty configPath
// searches ./bookrag.yaml, ./configs/bookrag.yaml and ~/.bookrag/bookrag.yaml.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bookrag"))
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	// Environment variable overrides, e.g. BOOKRAG_RETRIEVAL_TOP_K
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv(fallbackAPIKey)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(fallbackAPIKey)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Save writes the configuration as YAML. API keys are never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Embedding.APIKey = ""
	out.LLM.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// RAGConfig converts the loaded settings into pipeline configuration.
func (c *Config) RAGConfig() orchestrator.RAGConfig {
	rc := orchestrator.DefaultRAGConfig()

	rc.PDFPath = c.Document.PDFPath
	rc.Book = answer.Book{Title: c.Document.Title, Author: c.Document.Author}
	rc.ChunkSize = c.Chunking.ChunkSize
	rc.ChunkOverlap = c.Chunking.ChunkOverlap
	rc.TopK = c.Retrieval.TopK
	rc.BatchSize = c.Embedding.BatchSize
	rc.VectorType = c.Vector.Type

	rc.EmbedderConfig = rag.EmbedderConfig{
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		APIKey:    c.Embedding.APIKey,
		BaseURL:   c.Embedding.BaseURL,
	}
	rc.LLMConfig = answer.LLMConfig{
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
	}
	rc.LocalConfig = rag.LocalConfig{
		PersistDir:     c.Vector.PersistDir,
		CollectionName: c.Vector.Collection,
		Dimension:      c.Embedding.Dimension,
	}
	rc.MilvusConfig = rag.MilvusConfig{
		Address:        c.Vector.Milvus.Address,
		CollectionName: c.Vector.Collection,
		Dimension:      c.Embedding.Dimension,
		IndexType:      c.Vector.Milvus.IndexType,
		MetricType:     c.Vector.Milvus.MetricType,
		M:              c.Vector.Milvus.M,
		EfConstruction: c.Vector.Milvus.EfConstruction,
	}

	return rc
}
