package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramlabs/engram-go/pkg/scoring"
)

func TestMemoryConfigDefaults(t *testing.T) {
	policy := MemoryConfig{}.withDefaults()

	assert.Equal(t, DefaultShortTermCapacity, policy.ShortTermCapacity)
	assert.Equal(t, scoring.DefaultShortTermDecayHours, policy.ShortTermDecayHours)
	assert.Equal(t, scoring.DefaultHalfLifeDays, policy.HalfLifeDays)
	assert.Equal(t, scoring.DefaultRecencyWeight, policy.RecencyWeight)
	assert.Equal(t, scoring.DefaultFrequencyWeight, policy.FrequencyWeight)

	// Explicit values are kept as-is
	policy = MemoryConfig{ShortTermCapacity: 20, RecencyWeight: 0.5, FrequencyWeight: 0.5}.withDefaults()
	assert.Equal(t, 20, policy.ShortTermCapacity)
	assert.Equal(t, 0.5, policy.RecencyWeight)
}

func TestConfigValidate(t *testing.T) {
	valid := &Config{
		Storage: StorageConfig{Provider: "sqlite", Config: map[string]interface{}{"db_path": "./x.db"}},
	}
	assert.NoError(t, valid.Validate())

	missing := &Config{}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidConfig)

	badWeights := &Config{
		Storage: StorageConfig{Provider: "sqlite"},
		Memory:  MemoryConfig{RecencyWeight: 0.7, FrequencyWeight: 0.7},
	}
	assert.ErrorIs(t, badWeights.Validate(), ErrInvalidConfig)

	halfSpecified := &Config{
		Storage: StorageConfig{Provider: "sqlite"},
		Memory:  MemoryConfig{RecencyWeight: 0.7},
	}
	assert.ErrorIs(t, halfSpecified.Validate(), ErrInvalidConfig)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"storage": {
			"provider": "sqlite",
			"config": {"db_path": "./memories.db"}
		},
		"memory": {
			"short_term_capacity": 50,
			"half_life_days": 14
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.Storage.Provider)
	assert.Equal(t, "./memories.db", config.Storage.Config["db_path"])
	assert.Equal(t, 50, config.Memory.ShortTermCapacity)
	assert.Equal(t, 14.0, config.Memory.HalfLifeDays)

	_, err = LoadConfigFromJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewFromJSONConfig(t *testing.T) {
	// JSON decoding turns every number into float64; provider construction
	// must coerce, not assert
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"storage": {
			"provider": "postgres",
			"config": {
				"host": "localhost",
				"port": 5432,
				"user": "postgres",
				"password": "secret",
				"db_name": "engram"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfigFromJSON(path)
	require.NoError(t, err)

	store, err := New(config)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestNewFromJSONConfigMySQL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"storage": {
			"provider": "mysql",
			"config": {
				"host": "127.0.0.1",
				"port": 3306,
				"user": "root",
				"db_name": "engram"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfigFromJSON(path)
	require.NoError(t, err)

	store, err := New(config)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestNewRejectsIncompleteProviderConfig(t *testing.T) {
	// Missing port
	_, err := New(&Config{
		Storage: StorageConfig{
			Provider: "postgres",
			Config: map[string]interface{}{
				"host": "localhost", "user": "postgres", "db_name": "engram",
			},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Wrong type for port
	_, err = New(&Config{
		Storage: StorageConfig{
			Provider: "mysql",
			Config: map[string]interface{}{
				"host": "127.0.0.1", "port": "3306", "user": "root", "db_name": "engram",
			},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Missing db_path
	_, err = New(&Config{
		Storage: StorageConfig{Provider: "sqlite", Config: map[string]interface{}{}},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "sqlite")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("MEMORY_SHORT_TERM_CAPACITY", "25")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.Storage.Provider)
	assert.Equal(t, "./engram.db", config.Storage.Config["db_path"])
	assert.Equal(t, 25, config.Memory.ShortTermCapacity)
}
