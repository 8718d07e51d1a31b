package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/absmach/fedstats/pkg/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type sqlDataset struct {
	db    *sqlx.DB
	table string

	once    sync.Once
	columns map[string]bool
	colErr  error
}

// NewSQLDataset reads feature values from one table of a sqlite database.
// The column set is resolved once and cached; requesting a feature outside
// it yields errors.ErrFeatureNotFound without touching the rows.
func NewSQLDataset(path, table string) (Dataset, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	return &sqlDataset{db: db, table: table}, nil
}

func (d *sqlDataset) FeatureValues(ctx context.Context, feature string) ([]float64, error) {
	d.once.Do(func() { d.colErr = d.loadColumns(ctx) })
	if d.colErr != nil {
		return nil, d.colErr
	}

	if !d.columns[feature] {
		return nil, fmt.Errorf("%w: %q", errors.ErrFeatureNotFound, feature)
	}

	query := fmt.Sprintf(`SELECT "%s" FROM "%s" WHERE "%s" IS NOT NULL`, feature, d.table, feature)

	var values []float64
	if err := d.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to query feature %q: %w", feature, err)
	}

	return values, nil
}

func (d *sqlDataset) loadColumns(ctx context.Context) error {
	rows, err := d.db.QueryxContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, d.table))
	if err != nil {
		return fmt.Errorf("failed to inspect dataset table: %w", err)
	}
	defer rows.Close()

	d.columns = make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		d.columns[name] = true
	}

	return rows.Err()
}
