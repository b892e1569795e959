package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/engramlabs/engram-go/pkg/scoring"
	"github.com/engramlabs/engram-go/pkg/storage"
	mysqlStore "github.com/engramlabs/engram-go/pkg/storage/mysql"
	postgresStore "github.com/engramlabs/engram-go/pkg/storage/postgres"
	sqliteStore "github.com/engramlabs/engram-go/pkg/storage/sqlite"
)

// lifecycleState tracks schema initialization of the durable tier.
type lifecycleState int

const (
	// stateUninitialized means no operation has touched the durable tier yet.
	stateUninitialized lifecycleState = iota

	// stateInitializing means schema creation is in flight.
	stateInitializing

	// stateReady means the schema exists; terminal for the process lifetime.
	stateReady
)

// Store is the two-tier memory store.
//
// It orchestrates a bounded in-process short-term cache and a durable
// backing store:
//   - Writes go through to both tiers with a single timestamp
//   - Recall serves from the cache when it can, merging in durable results
//     only when the cache cannot satisfy the requested limit
//   - Deletion and summarization span both tiers
//
// The store is safe for concurrent use. The durable tier's schema is
// created lazily on the first operation; concurrent first calls coordinate
// so creation runs at most once.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	store, _ := core.New(config)
//	defer store.Close()
//
//	memory, _ := store.Remember(ctx, "User prefers concise answers",
//	    core.WithTags("preference"),
//	)
type Store struct {
	// config contains the store configuration.
	config *Config

	// policy is the resolved ranking and capacity policy.
	policy MemoryConfig

	// storage is the durable backing store.
	storage storage.Store

	// scorer computes relevance scores for the short-term tier.
	scorer *scoring.Scorer

	// shortTerm is the bounded in-process cache.
	shortTerm *shortTermCache

	// initMu guards the lifecycle state transition so schema creation
	// runs at most once even under concurrent first calls.
	initMu sync.Mutex
	state  lifecycleState
}

// New creates a Store from configuration, constructing the durable backend
// named by cfg.Storage.Provider.
//
// The backing store is not contacted here; connectivity is established
// lazily by the first operation. Returns an error if the configuration is
// invalid or the provider is unknown.
//
// Example:
//
//	store, err := core.New(&core.Config{
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        Config:   map[string]interface{}{"db_path": "./engram.db"},
//	    },
//	})
func New(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := initStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return NewWithStorage(cfg, backend)
}

// NewWithStorage creates a Store over an explicitly provided backend.
//
// This is the composition-root constructor: callers (and tests) own the
// backend's lifetime and can inject any storage.Store implementation.
func NewWithStorage(cfg *Config, backend storage.Store) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy := cfg.Memory.withDefaults()
	return &Store{
		config:  cfg,
		policy:  policy,
		storage: backend,
		scorer: scoring.NewScorerWithConfig(
			policy.RecencyWeight,
			policy.FrequencyWeight,
			policy.ShortTermDecayHours,
			policy.HalfLifeDays,
		),
		shortTerm: newShortTermCache(policy.ShortTermCapacity),
		state:     stateUninitialized,
	}, nil
}

// ensureReady is the guarded entry path shared by all operations.
//
// It drives the Uninitialized -> Initializing -> Ready transition: the
// first caller creates the schema while later callers wait on the mutex
// and observe Ready. A failed attempt returns the store to Uninitialized
// so a later call can retry.
func (s *Store) ensureReady(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.state == stateReady {
		return nil
	}

	s.state = stateInitializing
	if err := s.storage.EnsureSchema(ctx); err != nil {
		s.state = stateUninitialized
		return storeUnavailable("Initialize", err)
	}
	s.state = stateReady
	return nil
}

// Remember stores a memory in both tiers.
//
// The short-term cache is written first (evicting the oldest entry at
// capacity), then the memory and its tags are durably inserted. Both writes
// share one timestamp captured up front so the tiers agree on the record's
// age.
//
// If the durable write fails after the cache write succeeded, Remember
// reports the failure but keeps the cache copy; the short-term copy is
// best-effort and may be the only surviving copy until evicted.
//
// Parameters:
//   - ctx: Context for cancellation
//   - content: Memory content; must be non-empty
//   - opts: Optional parameters (Tags, Metadata)
//
// Returns the stored Memory carrying its durable id, or an error.
func (s *Store) Remember(ctx context.Context, content string, opts ...RememberOption) (*Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewMemoryError("Remember", ErrInvalidInput)
	}

	options := applyRememberOptions(opts)

	now := time.Now().UTC()
	memory := &Memory{
		Content:      content,
		Tags:         options.Tags,
		Metadata:     options.Metadata,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
	}

	// The cache copy keeps ID 0; the two tiers reconcile by
	// content+created_at, not by id.
	s.shortTerm.append(memory.clone())

	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	id, err := s.storage.Insert(ctx, toStorageMemory(memory))
	if err != nil {
		return nil, storeUnavailable("Remember", err)
	}
	memory.ID = id

	if err := s.storage.InsertTags(ctx, id, memory.Tags); err != nil {
		return nil, storeUnavailable("Remember", err)
	}

	return memory, nil
}

// Recall returns the most relevant memories for the given query and
// filters, most relevant first.
//
// The short-term cache is scored and filtered first. If it already yields
// at least the requested limit, the truncated cache result is returned
// without touching the backing store. Otherwise, unless WithoutLongTerm is
// set, the durable tier is queried for the remainder and appended after
// the cache results; tier order is preserved, trading globally optimal
// ranking for low latency.
//
// Every returned record that carries a durable id has its access count
// incremented and last_accessed refreshed, batched in one call. Short-term
// cache copies carry no id and keep their counters unchanged.
//
// The long-term lookup is best-effort: if the backing store is down, Recall
// still succeeds with whatever the cache produced.
//
// An empty result is not an error.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Case-insensitive substring to match against content; empty
//     matches everything
//   - opts: Optional parameters (WithTagFilter, WithLimit, WithoutLongTerm)
func (s *Store) Recall(ctx context.Context, query string, opts ...RecallOption) ([]*Memory, error) {
	options := applyRecallOptions(opts)
	now := time.Now().UTC()

	results := s.shortTerm.search(query, options.Tags, s.scorer, now)
	if len(results) >= options.Limit {
		return results[:options.Limit], nil
	}

	if options.UseLongTerm {
		// Best-effort: a down backing store degrades to cache-only results.
		if err := s.ensureReady(ctx); err == nil {
			longTerm, err := s.storage.QueryRanked(ctx, &storage.QueryOptions{
				Query:           query,
				Tags:            options.Tags,
				Limit:           options.Limit - len(results),
				RecencyWeight:   s.scorer.RecencyWeight(),
				FrequencyWeight: s.scorer.FrequencyWeight(),
				HalfLifeDays:    s.scorer.HalfLifeDays(),
			})
			if err == nil {
				results = append(results, fromStorageMemories(longTerm)...)
			}
		}
	}

	ids := make([]int64, 0, len(results))
	for _, m := range results {
		if m.ID != 0 {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) > 0 {
		if err := s.storage.TouchMany(ctx, ids); err != nil {
			return nil, storeUnavailable("Recall", err)
		}
	}

	return results, nil
}

// Forget removes memories from both tiers and returns the total number
// removed (short-term removals plus durable rows affected; a record present
// in both tiers may be counted twice, no correction is attempted).
//
// Exactly one selector is honored per call:
//   - WithMemoryID removes a single memory by durable id; it takes
//     precedence when both selectors are supplied.
//   - WithOlderThan removes memories created more than the given number of
//     days ago. Zero days removes everything.
//
// Supplying no selector is an invalid-argument failure.
func (s *Store) Forget(ctx context.Context, opts ...ForgetOption) (int64, error) {
	options := applyForgetOptions(opts)
	if options.MemoryID == 0 && !options.HasOlderThan {
		return 0, NewMemoryError("Forget", ErrMissingSelector)
	}

	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}

	if options.MemoryID != 0 {
		total := int64(s.shortTerm.removeByID(options.MemoryID))
		affected, err := s.storage.DeleteByID(ctx, options.MemoryID)
		if err != nil {
			return total, storeUnavailable("Forget", err)
		}
		return total + affected, nil
	}

	cutoff := time.Now().UTC().Add(-time.Duration(options.OlderThanDays) * 24 * time.Hour)
	total := int64(s.shortTerm.pruneOlderThan(cutoff))
	affected, err := s.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return total, storeUnavailable("Forget", err)
	}
	return total + affected, nil
}

// Summarize computes aggregate statistics over the durable tier: total
// count, creation time span, and the most frequent tags within the
// look-back window.
//
// Returns (nil, nil) when no memories match the window; an empty store is
// a "nothing to summarize" outcome, not an error.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Optional parameters (WithTagFilterForSummary, WithDays)
func (s *Store) Summarize(ctx context.Context, opts ...SummarizeOption) (*Summary, error) {
	options := applySummarizeOptions(opts)

	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-time.Duration(options.Days) * 24 * time.Hour)
	summary, err := s.storage.AggregateSummary(ctx, since, options.Tags)
	if err != nil {
		return nil, storeUnavailable("Summarize", err)
	}
	if summary == nil || summary.TotalCount == 0 {
		return nil, nil
	}

	out := fromStorageSummary(summary)
	out.Days = options.Days
	return out, nil
}

// ShortTermLen returns the current number of memories in the short-term
// cache. Intended for diagnostics and tests.
func (s *Store) ShortTermLen() int {
	return s.shortTerm.len()
}

// Close closes the store and releases the backing-store connection resource.
func (s *Store) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

// initStorage initializes the durable storage backend.
func initStorage(cfg StorageConfig) (storage.Store, error) {
	switch cfg.Provider {
	case "sqlite":
		dbPath, ok := configString(cfg.Config, "db_path")
		if !ok {
			return nil, invalidProviderConfig("sqlite", "db_path")
		}
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: dbPath,
		})
	case "postgres":
		host, hostOK := configString(cfg.Config, "host")
		port, portOK := configInt(cfg.Config, "port")
		user, userOK := configString(cfg.Config, "user")
		dbName, dbNameOK := configString(cfg.Config, "db_name")
		if !hostOK || !portOK || !userOK || !dbNameOK {
			return nil, invalidProviderConfig("postgres", "host, port, user, db_name")
		}
		password, _ := configString(cfg.Config, "password")
		sslMode, ok := configString(cfg.Config, "ssl_mode")
		if !ok {
			sslMode = "disable"
		}
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			DBName:   dbName,
			SSLMode:  sslMode,
		})
	case "mysql":
		host, hostOK := configString(cfg.Config, "host")
		port, portOK := configInt(cfg.Config, "port")
		user, userOK := configString(cfg.Config, "user")
		dbName, dbNameOK := configString(cfg.Config, "db_name")
		if !hostOK || !portOK || !userOK || !dbNameOK {
			return nil, invalidProviderConfig("mysql", "host, port, user, db_name")
		}
		password, _ := configString(cfg.Config, "password")
		return mysqlStore.NewClient(&mysqlStore.Config{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			DBName:   dbName,
		})
	default:
		return nil, NewMemoryError("initStorage", ErrInvalidConfig)
	}
}

func invalidProviderConfig(provider, required string) error {
	return NewMemoryError("initStorage",
		fmt.Errorf("%w: %s storage requires %s", ErrInvalidConfig, provider, required))
}

// configString reads a string value from a provider config map.
func configString(m map[string]interface{}, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// configInt reads an integer value from a provider config map. JSON decoding
// produces float64 for every number, so both forms are accepted.
func configInt(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
