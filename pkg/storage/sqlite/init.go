package sqlite

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/fedstats/pkg/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")
	// Wraps the shared sentinel so both storage backends surface the same
	// not-found error to the API layer.
	ErrRoundNotFound = fmt.Errorf("%w: round", pkgerrors.ErrNotFound)
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_rounds",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS rounds (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL,
						state INTEGER NOT NULL DEFAULT 0,
						selected_features TEXT NOT NULL,
						aggregation_methods TEXT NOT NULL,
						fraction_sample REAL NOT NULL,
						min_nodes INTEGER NOT NULL,
						sampled_nodes TEXT,
						valid_replies INTEGER DEFAULT 0,
						results TEXT,
						error TEXT,
						start_time TIMESTAMP,
						finish_time TIMESTAMP,
						created_at TIMESTAMP NOT NULL,
						updated_at TIMESTAMP NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_rounds_state ON rounds(state)`,
					`CREATE INDEX IF NOT EXISTS idx_rounds_created_at ON rounds(created_at DESC)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_rounds_created_at`,
					`DROP INDEX IF EXISTS idx_rounds_state`,
					`DROP TABLE IF EXISTS rounds`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
