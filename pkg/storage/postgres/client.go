// Package postgres provides a PostgreSQL implementation of the memory store.
//
// The relevance score expression is pushed into SQL using epoch arithmetic
// so ranking happens server-side, and tag filters use array containment.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"

	"github.com/engramlabs/engram-go/pkg/storage"
)

// Client implements storage.Store using PostgreSQL as the backend.
type Client struct {
	// db is the PostgreSQL connection pool.
	db *sql.DB

	// node generates unique memory ids.
	node *snowflake.Node
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewClient creates a new PostgreSQL store client.
//
// The connection is established lazily; construction succeeds even when
// the server is unreachable, and the first operation surfaces the failure.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	return &Client{db: db, node: node}, nil
}

// EnsureSchema creates the memories and memory_tags tables and their
// indices. Every statement is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id BIGINT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			last_accessed TIMESTAMPTZ NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS memory_tags (
			id BIGSERIAL PRIMARY KEY,
			memory_id BIGINT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
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
		VALUES ($1, $2, $3, $4, $5, $6)
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

// InsertTags associates tags with a memory in one transaction.
func (c *Client) InsertTags(ctx context.Context, memoryID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertTags: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO memory_tags (memory_id, tag) VALUES ($1, $2)`)
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
//	frequency = LEAST(access_count / 10, 1)
//	score     = recency_weight * recency + frequency_weight * frequency
func (c *Client) QueryRanked(ctx context.Context, opts *storage.QueryOptions) ([]*storage.Memory, error) {
	query := `
		SELECT m.id, m.content, m.metadata, m.created_at, m.last_accessed, m.access_count,
		       (SELECT string_agg(tag, chr(31)) FROM memory_tags WHERE memory_id = m.id) AS tags,
		       ($1 * (1.0 / (1.0 + EXTRACT(EPOCH FROM (NOW() - m.last_accessed)) / 86400.0 / $2)) +
		        $3 * LEAST(m.access_count / 10.0, 1.0)) AS score
		FROM memories m
	`
	args := []interface{}{opts.RecencyWeight, opts.HalfLifeDays, opts.FrequencyWeight}

	var where []string
	if opts.Query != "" {
		args = append(args, opts.Query)
		where = append(where, fmt.Sprintf("m.content ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if len(opts.Tags) > 0 {
		args = append(args, pq.Array(opts.Tags))
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.memory_id = m.id AND mt.tag = ANY($%d))",
			len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, opts.Limit)
	query += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args))

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

	_, err := c.db.ExecContext(ctx, `
		UPDATE memories
		SET access_count = access_count + 1, last_accessed = $1
		WHERE id = ANY($2)
	`, time.Now().UTC(), pq.Array(ids))
	if err != nil {
		return fmt.Errorf("TouchMany: %w", err)
	}
	return nil
}

// DeleteByID deletes a memory by id. Tag rows are removed by cascade.
func (c *Client) DeleteByID(ctx context.Context, id int64) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id)
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
	result, err := c.db.ExecContext(ctx, `DELETE FROM memories WHERE created_at < $1`, cutoff.UTC())
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
		WHERE m.created_at > $1
	`
	args := []interface{}{since.UTC()}
	if len(tags) > 0 {
		args = append(args, pq.Array(tags))
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.memory_id = m.id AND mt.tag = ANY($%d))",
			len(args))
	}

	var (
		summary  storage.Summary
		earliest sql.NullTime
		latest   sql.NullTime
	)
	row := c.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&summary.TotalCount, &earliest, &latest); err != nil {
		return nil, fmt.Errorf("AggregateSummary: %w", err)
	}

	if summary.TotalCount == 0 {
		return &summary, nil
	}
	summary.Earliest = earliest.Time
	summary.Latest = latest.Time

	tagQuery := `
		SELECT mt.tag, COUNT(*) AS tag_count
		FROM memory_tags mt
		JOIN memories m ON mt.memory_id = m.id
		WHERE m.created_at > $1
	`
	tagArgs := []interface{}{since.UTC()}
	if len(tags) > 0 {
		tagArgs = append(tagArgs, pq.Array(tags))
		tagQuery += fmt.Sprintf(" AND mt.tag = ANY($%d)", len(tagArgs))
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

// splitTags splits a string_agg tag list.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, tagSeparator)
}
