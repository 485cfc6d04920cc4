package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

type sqliteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(cfg Config) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().Msgf("Initializing snapshot store at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, source string, snapshot any) error {
	errFactory := errors.New()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errFactory.Wrap(ErrEncodeFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO latest (source, updated_at, payload)
        VALUES (?, ?, ?)
        ON CONFLICT(source) DO UPDATE SET
            updated_at = excluded.updated_at,
            payload = excluded.payload
    `, source, time.Now().Unix(), string(payload))
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) Load(ctx context.Context, source string, snapshot any) (bool, error) {
	errFactory := errors.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `
        SELECT payload FROM latest WHERE source = ?
    `, source).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(ErrStorageAccess, err)
	}

	if err := json.Unmarshal([]byte(payload), snapshot); err != nil {
		return false, errFactory.Wrap(ErrDecodeFailed, err)
	}

	return true, nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

// Noop store used when caching is disabled.
type noopStore struct{}

func NewNoop() Store {
	return &noopStore{}
}

func (*noopStore) Save(_ context.Context, _ string, _ any) error {
	return nil
}

func (*noopStore) Load(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (*noopStore) Close() error {
	return nil
}
