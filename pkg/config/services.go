// pkg/config/services.go
package config

import (
	"time"
)

// QdrantConfig holds vector index connection and collection settings
type QdrantConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	Distance string

	// Tuning options forwarded on collection creation; zero means omitted
	ShardNumber       int
	SegmentNumber     int
	IndexingThreshold int
	MemmapThreshold   int
}

// EmbeddingConfig holds embedding provider settings
type EmbeddingConfig struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables client-side limiting
	Burst             int
}

// LLMConfig holds answering service settings
type LLMConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// LoadQdrantConfig loads vector index configuration from environment variables
func LoadQdrantConfig() *QdrantConfig {
	return &QdrantConfig{
		URL:               getEnv("QDRANT_URL", "http://localhost:6333"),
		APIKey:            getEnv("QDRANT_API_KEY", ""),
		Timeout:           time.Duration(getEnvAsInt("QDRANT_TIMEOUT_SECONDS", 30)) * time.Second,
		Distance:          getEnv("QDRANT_DISTANCE", "Cosine"),
		ShardNumber:       getEnvAsInt("QDRANT_SHARD_NUMBER", 0),
		SegmentNumber:     getEnvAsInt("QDRANT_SEGMENT_NUMBER", 0),
		IndexingThreshold: getEnvAsInt("QDRANT_INDEXING_THRESHOLD", 0),
		MemmapThreshold:   getEnvAsInt("QDRANT_MEMMAP_THRESHOLD", 0),
	}
}

// TuningOptions returns the collection tuning payload. Keys with zero values
// are left out so the index applies its own defaults.
func (c *QdrantConfig) TuningOptions() map[string]interface{} {
	opts := map[string]interface{}{}
	if c.ShardNumber > 0 {
		opts["shard_number"] = c.ShardNumber
	}

	optimizers := map[string]interface{}{}
	if c.SegmentNumber > 0 {
		optimizers["default_segment_number"] = c.SegmentNumber
	}
	if c.IndexingThreshold > 0 {
		optimizers["indexing_threshold"] = c.IndexingThreshold
	}
	if c.MemmapThreshold > 0 {
		optimizers["memmap_threshold"] = c.MemmapThreshold
	}
	if len(optimizers) > 0 {
		opts["optimizers_config"] = optimizers
	}
	return opts
}

// LoadEmbeddingConfig loads embedding provider configuration from environment variables
func LoadEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{
		BaseURL:           getEnv("EMBEDDING_URL", "http://localhost:11434"),
		Model:             getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		Timeout:           time.Duration(getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 30)) * time.Second,
		RequestsPerSecond: getEnvAsFloat("EMBEDDING_RPS", 0),
		Burst:             getEnvAsInt("EMBEDDING_BURST", 1),
	}
}

// LoadLLMConfig loads answering service configuration from environment variables
func LoadLLMConfig() *LLMConfig {
	return &LLMConfig{
		BaseURL:     getEnv("LLM_URL", "http://localhost:11434"),
		Model:       getEnv("LLM_MODEL", "llama3.2"),
		Timeout:     time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2048),
	}
}
