package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

type sqliteKV struct {
	db  *sql.DB
	log zerolog.Logger
}

func openSQLite(config Config, log zerolog.Logger) (KV, error) {
	path := strings.TrimSpace(config.Path)
	if path == "" {
		return nil, errors.New("open storage: path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if config.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &sqliteKV{
		db:  db,
		log: log.With().Str("component", "storage").Str("driver", "sqlite").Logger(),
	}, nil
}

func (store *sqliteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := store.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (store *sqliteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	store.log.Debug().Str("key", key).Int("bytes", len(value)).Msg("stored")
	return nil
}

func (store *sqliteKV) Close() error {
	if store.db == nil {
		return nil
	}
	return store.db.Close()
}
