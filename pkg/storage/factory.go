package storage

import (
	"fmt"
	"io"

	"github.com/absmach/fedstats/pkg/storage/sqlite"
)

type Config struct {
	Type       string `env:"COORDINATOR_STORAGE_TYPE" envDefault:"memory"`
	SQLitePath string `env:"COORDINATOR_SQLITE_PATH"  envDefault:"./fedstats.db"`
}

// NewRoundRepository builds the configured round store. The returned closer
// is nil for the in-memory backend.
func NewRoundRepository(cfg Config) (RoundRepository, io.Closer, error) {
	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}

		return sqlite.NewRoundRepository(db), db, nil
	case "memory":
		return NewRoundMemoryRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
