package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("OPENAI_API_KEY", "")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("temperature = %.2f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Embedding.Dimension != 768 {
		t.Errorf("dimension = %d, want 768", cfg.Embedding.Dimension)
	}
	if cfg.Vector.Type != "local" || cfg.Vector.PersistDir != "./vector_db" {
		t.Errorf("vector = %+v", cfg.Vector)
	}
	if cfg.Server.Address() != "0.0.0.0:8501" {
		t.Errorf("server address = %s", cfg.Server.Address())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Retrieval.TopK != 5 || cfg.Document.PDFPath != "The_War_of_the_Worlds_NT.pdf" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_SearchPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "working directory", path: "bookrag.yaml"},
		{name: "configs directory", path: filepath.Join("configs", "bookrag.yaml")},
		{name: "home directory", path: filepath.Join(".bookrag", "bookrag.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeFile(t, filepath.Join(dir, tt.path), "retrieval:\n  top_k: 9\n")

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Retrieval.TopK != 9 {
				t.Errorf("top_k = %d, want 9", cfg.Retrieval.TopK)
			}
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
document:
  pdf_path: books/dracula.pdf
  title: Dracula
chunking:
  chunk_size: 500
  chunk_overlap: 50
llm:
  temperature: 0.7
vector:
  type: milvus
  milvus:
    address: milvus:19530
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Document.PDFPath != "books/dracula.pdf" || cfg.Document.Title != "Dracula" {
		t.Errorf("document = %+v", cfg.Document)
	}
	if cfg.Document.Author != "H.G. Wells" {
		t.Errorf("unset keys should keep defaults, author = %q", cfg.Document.Author)
	}
	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if cfg.LLM.Temperature < 0.69 || cfg.LLM.Temperature > 0.71 {
		t.Errorf("temperature = %.2f, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.Vector.Type != "milvus" || cfg.Vector.Milvus.Address != "milvus:19530" {
		t.Errorf("vector = %+v", cfg.Vector)
	}
	if cfg.Vector.Milvus.M != 16 {
		t.Errorf("milvus.m = %d, want default 16", cfg.Vector.Milvus.M)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("BOOKRAG_RETRIEVAL_TOP_K", "8")
	t.Setenv("BOOKRAG_VECTOR_PERSIST_DIR", "/tmp/book_index")
	t.Setenv("BOOKRAG_LLM_MODEL", "gemini-2.5-flash")
	t.Setenv("BOOKRAG_VECTOR_MILVUS_ADDRESS", "db:19530")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Retrieval.TopK != 8 {
		t.Errorf("top_k = %d, want 8", cfg.Retrieval.TopK)
	}
	if cfg.Vector.PersistDir != "/tmp/book_index" {
		t.Errorf("persist_dir = %s", cfg.Vector.PersistDir)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("llm.model = %s", cfg.LLM.Model)
	}
	if cfg.Vector.Milvus.Address != "db:19530" {
		t.Errorf("milvus.address = %s", cfg.Vector.Milvus.Address)
	}
}

func TestLoad_APIKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("BOOKRAG_LLM_API_KEY", "sk-llm")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Embedding.APIKey != "sk-shared" {
		t.Errorf("embedding key = %q, want fallback", cfg.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "sk-llm" {
		t.Errorf("llm key = %q, want explicit", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "overlap not below size", mutate: func(c *Config) { c.Chunking.ChunkOverlap = 1000 }, field: "ChunkOverlap"},
		{name: "zero chunk size", mutate: func(c *Config) { c.Chunking.ChunkSize = 0 }, field: "ChunkSize"},
		{name: "temperature too high", mutate: func(c *Config) { c.LLM.Temperature = 2.5 }, field: "Temperature"},
		{name: "unknown vector type", mutate: func(c *Config) { c.Vector.Type = "faiss" }, field: "Type"},
		{name: "zero top_k", mutate: func(c *Config) { c.Retrieval.TopK = 0 }, field: "TopK"},
		{name: "bad base url", mutate: func(c *Config) { c.LLM.BaseURL = "not a url" }, field: "BaseURL"},
		{name: "missing persist dir", mutate: func(c *Config) { c.Vector.PersistDir = "" }, field: "PersistDir"},
		{name: "bad metric", mutate: func(c *Config) { c.Vector.Milvus.MetricType = "HAMMING" }, field: "MetricType"},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, field: "Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error should name %s: %v", tt.field, err)
			}
		})
	}
}

func TestValidate_MilvusWithoutPersistDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vector.Type = "milvus"
	cfg.Vector.PersistDir = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("persist_dir is only required for the local store: %v", err)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "chunking:\n  chunk_size: 100\n  chunk_overlap: 150\n")

	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out", "bookrag.yaml")

	cfg := DefaultConfig()
	cfg.Retrieval.TopK = 3
	cfg.LLM.APIKey = "sk-secret"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("API keys must not be written")
	}
	if !strings.Contains(string(data), "chunk_size: 1000") {
		t.Errorf("saved config missing chunk_size:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Retrieval.TopK != 3 {
		t.Errorf("top_k = %d, want 3", loaded.Retrieval.TopK)
	}
	if cfg.LLM.APIKey != "sk-secret" {
		t.Error("Save must not modify the receiver")
	}
}

func TestRAGConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Document.Title = "Dracula"
	cfg.Embedding.Dimension = 1536
	cfg.Vector.Collection = "dracula"
	cfg.LLM.APIKey = "sk-llm"

	rc := cfg.RAGConfig()

	if rc.Book.Title != "Dracula" {
		t.Errorf("book title = %s", rc.Book.Title)
	}
	if rc.LocalConfig.Dimension != 1536 || rc.MilvusConfig.Dimension != 1536 || rc.EmbedderConfig.Dimension != 1536 {
		t.Error("dimension must be shared by the embedder and both stores")
	}
	if rc.LocalConfig.CollectionName != "dracula" || rc.MilvusConfig.CollectionName != "dracula" {
		t.Error("collection must be shared by both stores")
	}
	if rc.LLMConfig.APIKey != "sk-llm" || rc.LLMConfig.Temperature != 0.3 {
		t.Errorf("llm config = %+v", rc.LLMConfig)
	}
	if rc.TopK != 5 || rc.ChunkSize != 1000 || rc.ChunkOverlap != 200 || rc.BatchSize != 64 {
		t.Errorf("unexpected pipeline settings: %+v", rc)
	}
}
