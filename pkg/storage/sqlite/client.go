// Package sqlite provides a SQLite implementation of the memory store.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-host agents. The relevance score expression is pushed into SQL
// using julianday arithmetic so ranking happens server-side.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/mattn/go-sqlite3"

	"github.com/engramlabs/engram-go/pkg/storage"
)

// Client implements storage.Store using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection pool.
	db *sql.DB

	// node generates unique memory ids.
	node *snowflake.Node
}

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// NewClient creates a new SQLite store client.
//
// The database file is opened lazily; no statement runs until the first
// operation, so construction succeeds even if the schema does not exist yet.
//
// Parameters:
//   - cfg: Configuration containing the database path
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if the path cannot be prepared
func NewClient(cfg *Config) (*Client, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	return &Client{db: db, node: node}, nil
}

// EnsureSchema creates the memories and memory_tags tables and their
// indices. Every statement is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			last_accessed DATETIME NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS memory_tags (
			id INTEGER PRIMARY KEY,
			memory_id INTEGER NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
			tag TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_last_accessed ON memories(last_accessed)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_tags_tag ON memory_tags(tag)`,
		`CREATE INDEX IF NOT EXISTS idx_memory_tags_memory_id ON memory_tags(memory_id)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("EnsureSchema: %w", err)
		}
	}
	return nil
}

// Insert inserts a memory and returns its assigned id.
func (c *Client) Insert(ctx context.Context, memory *storage.Memory) (int64, error) {
	metadataJSON, err := marshalMetadata(memory.Metadata)
	if err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}

	id := c.node.Generate().Int64()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO memories (id, content, metadata, created_at, last_accessed, access_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		id,
		memory.Content,
		metadataJSON,
		memory.CreatedAt.UTC(),
		memory.LastAccessed.UTC(),
		memory.AccessCount,
	)
	if err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}

	return id, nil
}

// InsertTags associates tags with a memory. The rows are written in one
// transaction so a partial tag set never becomes visible.
func (c *Client) InsertTags(ctx context.Context, memoryID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertTags: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO memory_tags (memory_id, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("InsertTags: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, tag := range tags {
		if _, err := stmt.ExecContext(ctx, memoryID, tag); err != nil {
			return fmt.Errorf("InsertTags: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertTags: %w", err)
	}
	return nil
}

// QueryRanked returns memories ordered by descending relevance score.
//
// The score is computed in SQL:
//
//	recency   = 1 / (1 + idle_days / half_life_days)   (idle since last access)
//	frequency = min(access_count / 10, 1)
//	score     = recency_weight * recency + frequency_weight * frequency
func (c *Client) QueryRanked(ctx context.Context, opts *storage.QueryOptions) ([]*storage.Memory, error) {
	query := `
		SELECT m.id, m.content, m.metadata, m.created_at, m.last_accessed, m.access_count,
		       (SELECT GROUP_CONCAT(tag, char(31)) FROM memory_tags WHERE memory_id = m.id) AS tags,
		       (? * (1.0 / (1.0 + (julianday('now') - julianday(m.last_accessed)) / ?)) +
		        ? * MIN(m.access_count / 10.0, 1.0)) AS score
		FROM memories m
	`
	args := []interface{}{opts.RecencyWeight, opts.HalfLifeDays, opts.FrequencyWeight}

	var where []string
	if opts.Query != "" {
		where = append(where, "INSTR(LOWER(m.content), LOWER(?)) > 0")
		args = append(args, opts.Query)
	}
	if len(opts.Tags) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.memory_id = m.id AND mt.tag IN (%s))",
			placeholders(len(opts.Tags))))
		for _, tag := range opts.Tags {
			args = append(args, tag)
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY score DESC LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryRanked: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*storage.Memory
	for rows.Next() {
		var (
			memory      storage.Memory
			metadataStr sql.NullString
			tagsStr     sql.NullString
		)
		err := rows.Scan(
			&memory.ID,
			&memory.Content,
			&metadataStr,
			&memory.CreatedAt,
			&memory.LastAccessed,
			&memory.AccessCount,
			&tagsStr,
			&memory.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("QueryRanked: %w", err)
		}

		if err := unmarshalMetadata(metadataStr.String, &memory.Metadata); err != nil {
			return nil, fmt.Errorf("QueryRanked: %w", err)
		}
		memory.Tags = splitTags(tagsStr.String)
		memories = append(memories, &memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryRanked: %w", err)
	}

	return memories, nil
}

// TouchMany increments access_count and refreshes last_accessed for every
// given id, atomically in one statement.
func (c *Client) TouchMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE memories
		SET access_count = access_count + 1, last_accessed = ?
		WHERE id IN (%s)
	`, placeholders(len(ids)))

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("TouchMany: %w", err)
	}
	return nil
}

// DeleteByID deletes a memory by id. Tag rows are removed by cascade.
func (c *Client) DeleteByID(ctx context.Context, id int64) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("DeleteByID: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteByID: %w", err)
	}
	return affected, nil
}

// DeleteOlderThan deletes all memories created before the cutoff.
func (c *Client) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM memories WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", err)
	}
	return affected, nil
}

// AggregateSummary computes aggregate statistics over memories created
// after since, optionally restricted by tags.
func (c *Client) AggregateSummary(ctx context.Context, since time.Time, tags []string) (*storage.Summary, error) {
	query := `
		SELECT COUNT(*), MIN(m.created_at), MAX(m.created_at)
		FROM memories m
		WHERE m.created_at > ?
	`
	args := []interface{}{since.UTC()}
	if len(tags) > 0 {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.memory_id = m.id AND mt.tag IN (%s))",
			placeholders(len(tags)))
		for _, tag := range tags {
			args = append(args, tag)
		}
	}

	var (
		summary  storage.Summary
		earliest sql.NullString
		latest   sql.NullString
	)
	row := c.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&summary.TotalCount, &earliest, &latest); err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}

	if summary.TotalCount == 0 {
		return &summary, nil
	}

	var err error
	if summary.Earliest, err = parseTimestamp(earliest.String); err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}
	if summary.Latest, err = parseTimestamp(latest.String); err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}

	tagQuery := `
		SELECT mt.tag, COUNT(*) AS tag_count
		FROM memory_tags mt
		JOIN memories m ON mt.memory_id = m.id
		WHERE m.created_at > ?
	`
	tagArgs := []interface{}{since.UTC()}
	if len(tags) > 0 {
		tagQuery += fmt.Sprintf(" AND mt.tag IN (%s)", placeholders(len(tags)))
		for _, tag := range tags {
			tagArgs = append(tagArgs, tag)
		}
	}
	tagQuery += " GROUP BY mt.tag ORDER BY tag_count DESC, mt.tag LIMIT 5"

	rows, err := c.db.QueryContext(ctx, tagQuery, tagArgs...)
	if err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tc storage.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("AggregateSummary: %w", err)
		}
		summary.TopTags = append(summary.TopTags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}

	return &summary, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// placeholders returns n comma-separated "?" placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// marshalMetadata serializes metadata, treating nil as an empty object.
func marshalMetadata(metadata map[string]interface{}) (string, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalMetadata parses metadata from its stored form.
func unmarshalMetadata(raw string, out *map[string]interface{}) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

// tagSeparator joins aggregated tag lists in queries. The ASCII unit
// separator does not occur in tag text, so tags containing commas survive
// the aggregation round-trip.
const tagSeparator = "\x1f"

// splitTags splits a GROUP_CONCAT tag list.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, tagSeparator)
}

// sqliteTimestampFormats are the layouts the driver uses when binding
// time.Time values. MIN/MAX expressions lose the column's declared type,
// so aggregate results come back as strings and are parsed here.
var sqliteTimestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range sqliteTimestampFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
