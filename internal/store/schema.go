package store

import (
	"database/sql"

	"codeberg.org/mutker/envmon/internal/errors"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS latest (
            source TEXT PRIMARY KEY,
            updated_at INTEGER NOT NULL,
            payload TEXT NOT NULL
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}
