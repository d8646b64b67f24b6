// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Source store and downstream services
	Source    *SourceConfig
	Qdrant    *QdrantConfig
	Embedding *EmbeddingConfig
	LLM       *LLMConfig
	Plants    *PlantRegistry

	// Pipeline settings
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	MemoryThreshold    float64 // percent of host memory in use
	MemoryPollInterval time.Duration
	BatchPause         time.Duration
	LedgerPath         string
	PlantRegistryPath  string

	// Query settings
	RetrievalK   int
	HistoryLimit int

	// Logging and metrics
	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}

	source, err := LoadSourceConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load source configuration: %w", err)
	}
	cfg.Source = source

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadServiceConfig loads everything except the source store, for commands
// that only talk to the vector index, the ledger or the answering service
func LoadServiceConfig() (*Config, error) {
	cfg, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateServices(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadBaseConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		BatchSize:          getEnvAsInt("BATCH_SIZE", 64),
		RetryAttempts:      getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:         time.Duration(getEnvAsInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
		MemoryThreshold:    getEnvAsFloat("MEMORY_THRESHOLD_PERCENT", 85),
		MemoryPollInterval: time.Duration(getEnvAsInt("MEMORY_POLL_MS", 5000)) * time.Millisecond,
		BatchPause:         time.Duration(getEnvAsInt("BATCH_PAUSE_MS", 500)) * time.Millisecond,
		LedgerPath:         getEnv("LEDGER_PATH", "processed_records.csv"),
		PlantRegistryPath:  getEnv("PLANT_REGISTRY_PATH", ""),
		RetrievalK:         getEnvAsInt("RETRIEVAL_K", 50),
		HistoryLimit:       getEnvAsInt("HISTORY_LIMIT", 6),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		LogFile:            getEnv("LOG_FILE", ""),
		MetricsAddr:        getEnv("METRICS_ADDR", ""),
	}

	cfg.Qdrant = LoadQdrantConfig()
	cfg.Embedding = LoadEmbeddingConfig()
	cfg.LLM = LoadLLMConfig()

	if cfg.PlantRegistryPath != "" {
		plants, err := LoadPlantRegistry(cfg.PlantRegistryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load plant registry: %w", err)
		}
		cfg.Plants = plants
	} else {
		cfg.Plants = DefaultPlantRegistry()
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Source == nil {
		return errors.New("source configuration is required")
	}
	return c.validateServices()
}

func (c *Config) validateServices() error {
	if c.Qdrant == nil || c.Qdrant.URL == "" {
		return errors.New("qdrant URL is required")
	}

	if c.Embedding == nil || c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}

	if c.Plants == nil {
		return errors.New("plant registry is required")
	}
	if err := c.Plants.Validate(); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	if c.MemoryThreshold <= 0 || c.MemoryThreshold > 100 {
		return errors.New("memory threshold must be within (0, 100]")
	}

	if c.MemoryPollInterval <= 0 {
		return errors.New("memory poll interval must be positive")
	}

	if c.BatchPause < 0 {
		return errors.New("batch pause cannot be negative")
	}

	if c.LedgerPath == "" {
		return errors.New("ledger path is required")
	}

	if c.RetrievalK <= 0 {
		return errors.New("retrieval k must be positive")
	}

	if c.HistoryLimit < 0 {
		return errors.New("history limit cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
