package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Vector   VectorConfig   `yaml:"vector"`
	Database DatabaseConfig `yaml:"database"`
	Blob     BlobConfig     `yaml:"blob"`
	Embedder EmbedderConfig `yaml:"embedder"`
	RAG      RAGConfig      `yaml:"rag"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type VectorConfig struct {
	Backend    string `yaml:"backend"` // qdrant or memory
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type BlobConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type EmbedderConfig struct {
	Provider string `yaml:"provider"` // ollama or openai
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	MaxResults          int     `yaml:"max_results"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

type JobsConfig struct {
	HistorySize      int `yaml:"history_size"`
	RetentionMinutes int `yaml:"retention_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Vector.Backend == "" {
		c.Vector.Backend = "memory"
	}
	if c.Vector.Addr == "" {
		c.Vector.Addr = "localhost:6334"
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "documents"
	}
	if c.Vector.Dimension == 0 {
		c.Vector.Dimension = 768
	}
	if c.Blob.Bucket == "" {
		c.Blob.Bucket = "documents"
	}
	if c.Blob.Prefix == "" {
		c.Blob.Prefix = "documents"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 200
	}
	if c.RAG.MaxResults == 0 {
		c.RAG.MaxResults = 5
	}
	if c.RAG.SimilarityThreshold == 0 {
		c.RAG.SimilarityThreshold = 0.7
	}
	if c.Jobs.HistorySize == 0 {
		c.Jobs.HistorySize = 100
	}
	if c.Jobs.RetentionMinutes == 0 {
		c.Jobs.RetentionMinutes = 60
	}
}
