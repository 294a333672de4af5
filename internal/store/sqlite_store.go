package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type SQLiteStore struct {
	db *sqlx.DB
}

const (
	getValueQuery = "SELECT value FROM kv WHERE key = ?"
	setValueQuery = `
		INSERT INTO kv (key, value, updated_at) VALUES (:key, :value, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	removeValueQuery = "DELETE FROM kv WHERE key = ?"
)

type kvRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, getValueQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.NamedExecContext(ctx, setValueQuery, kvRow{Key: key, Value: value})
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, removeValueQuery, key)
	return err
}
