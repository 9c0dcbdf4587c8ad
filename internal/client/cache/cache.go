// Package cache persists the last received proposal snapshots on disk so
// list screens can render immediately on the next launch, before the live
// subscriptions reconnect.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mkravec/tripmate/internal/client/cache/migrations"
	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
)

type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db, now: time.Now}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the sqlite file at dsn, applies migrations and returns
// a ready cache.
func InitDatabase(ctx context.Context, dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLiteCache(db), nil
}

// Save stores snapshot under key, replacing any previous one.
func (c *SQLiteCache) Save(ctx context.Context, key string, snapshot []core.Proposal) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `insert into snapshots (key, payload, saved_at) values (?, ?, ?)
		on conflict(key) do update set payload=excluded.payload, saved_at=excluded.saved_at`
	if _, err := c.db.ExecContext(ctx, query, key, payload, c.now()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot stored under key, or common.ErrNotFound.
func (c *SQLiteCache) Load(ctx context.Context, key string) ([]core.Proposal, error) {
	query := `select payload from snapshots where key=?`
	row := c.db.QueryRowContext(ctx, query, key)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snapshot []core.Proposal
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// DeleteByKey removes one stored snapshot. Missing keys are not an error.
func (c *SQLiteCache) DeleteByKey(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `delete from snapshots where key=?`, key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
