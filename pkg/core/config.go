// Package core provides the two-tier memory store orchestrator.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/engramlabs/engram-go/pkg/scoring"
)

// DefaultShortTermCapacity is the default number of memories held in the
// short-term cache before FIFO eviction kicks in.
const DefaultShortTermCapacity = 100

// Config contains the complete configuration for a memory Store.
//
// It includes settings for:
//   - Durable storage backend (SQLite, PostgreSQL, MySQL)
//   - Memory ranking policy (capacity, decay constants, weights)
//
// Example:
//
//	config := &core.Config{
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./memories.db",
//	        },
//	    },
//	}
type Config struct {
	// Storage contains durable storage backend configuration.
	Storage StorageConfig `json:"storage"`

	// Memory contains ranking and capacity policy (optional; zero values
	// fall back to the defaults).
	Memory MemoryConfig `json:"memory,omitempty"`
}

// StorageConfig contains configuration for the durable storage backend.
//
// Supported providers: sqlite, postgres, mysql
//
// Example:
//
//	storageConfig := core.StorageConfig{
//	    Provider: "postgres",
//	    Config: map[string]interface{}{
//	        "host":    "localhost",
//	        "port":    5432,
//	        "user":    "postgres",
//	        "db_name": "agent",
//	    },
//	}
type StorageConfig struct {
	// Provider is the storage provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For MySQL: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// MemoryConfig contains the ranking and capacity policy for the store.
//
// All values are policy, not mechanism: they carry built-in defaults but
// can be tuned per deployment.
type MemoryConfig struct {
	// ShortTermCapacity is the maximum number of memories held in the
	// short-term cache. Default: 100.
	ShortTermCapacity int `json:"short_term_capacity,omitempty"`

	// ShortTermDecayHours is the short-term recency decay constant in
	// hours. Default: 24.
	ShortTermDecayHours float64 `json:"short_term_decay_hours,omitempty"`

	// HalfLifeDays is the long-term recency decay constant in days,
	// applied against the last access time. Default: 30.
	HalfLifeDays float64 `json:"half_life_days,omitempty"`

	// RecencyWeight is the weight of the recency score component.
	// Default: 0.7. RecencyWeight and FrequencyWeight must sum to 1.0.
	RecencyWeight float64 `json:"recency_weight,omitempty"`

	// FrequencyWeight is the weight of the frequency score component.
	// Default: 0.3.
	FrequencyWeight float64 `json:"frequency_weight,omitempty"`
}

// withDefaults returns the memory policy with zero values replaced by the
// built-in defaults. Weights default as a pair so a half-specified pair is
// caught by Validate instead of silently rebalanced.
func (m MemoryConfig) withDefaults() MemoryConfig {
	if m.ShortTermCapacity == 0 {
		m.ShortTermCapacity = DefaultShortTermCapacity
	}
	if m.ShortTermDecayHours == 0 {
		m.ShortTermDecayHours = scoring.DefaultShortTermDecayHours
	}
	if m.HalfLifeDays == 0 {
		m.HalfLifeDays = scoring.DefaultHalfLifeDays
	}
	if m.RecencyWeight == 0 && m.FrequencyWeight == 0 {
		m.RecencyWeight = scoring.DefaultRecencyWeight
		m.FrequencyWeight = scoring.DefaultFrequencyWeight
	}
	return m
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - MEMORY_SHORT_TERM_CAPACITY, MEMORY_SHORT_TERM_DECAY_HOURS,
//     MEMORY_HALF_LIFE_DAYS, MEMORY_RECENCY_WEIGHT, MEMORY_FREQUENCY_WEIGHT
//
// Returns a Config instance, or an error if loading fails.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	storageConfig := make(map[string]interface{})
	switch provider {
	case "sqlite":
		storageConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", "./engram.db"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "engram"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		storageConfig = map[string]interface{}{
			"host":     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("MYSQL_USER", "root"),
			"password": os.Getenv("MYSQL_PASSWORD"),
			"db_name":  getEnvOrDefault("MYSQL_DATABASE", "engram"),
		}
	}

	memory := MemoryConfig{}
	if v := os.Getenv("MEMORY_SHORT_TERM_CAPACITY"); v != "" {
		memory.ShortTermCapacity, _ = strconv.Atoi(v)
	}
	if v := os.Getenv("MEMORY_SHORT_TERM_DECAY_HOURS"); v != "" {
		memory.ShortTermDecayHours, _ = strconv.ParseFloat(v, 64)
	}
	if v := os.Getenv("MEMORY_HALF_LIFE_DAYS"); v != "" {
		memory.HalfLifeDays, _ = strconv.ParseFloat(v, 64)
	}
	if v := os.Getenv("MEMORY_RECENCY_WEIGHT"); v != "" {
		memory.RecencyWeight, _ = strconv.ParseFloat(v, 64)
	}
	if v := os.Getenv("MEMORY_FREQUENCY_WEIGHT"); v != "" {
		memory.FrequencyWeight, _ = strconv.ParseFloat(v, 64)
	}

	return &Config{
		Storage: StorageConfig{
			Provider: provider,
			Config:   storageConfig,
		},
		Memory: memory,
	}, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Checks that:
//   - A storage provider is specified
//   - The short-term capacity is not negative
//   - The scoring weights, when set, sum to 1.0
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Storage.Provider == "" {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	if c.Memory.ShortTermCapacity < 0 {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	if c.Memory.RecencyWeight != 0 || c.Memory.FrequencyWeight != 0 {
		sum := c.Memory.RecencyWeight + c.Memory.FrequencyWeight
		if math.Abs(sum-1.0) > 1e-9 {
			return NewMemoryError("Validate",
				fmt.Errorf("%w: scoring weights must sum to 1.0, got %.3f", ErrInvalidConfig, sum))
		}
	}
	if c.Memory.ShortTermDecayHours < 0 || c.Memory.HalfLifeDays < 0 {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
