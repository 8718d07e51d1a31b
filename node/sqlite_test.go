package node

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/absmach/fedstats/pkg/errors"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDataset(t *testing.T) Dataset {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataset.db")

	db, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE people (age REAL, height REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people (age, height) VALUES (2, 170), (4, NULL), (4, 180)`)
	require.NoError(t, err)

	dataset, err := NewSQLDataset(path, "people")
	require.NoError(t, err)

	return dataset
}

func TestSQLDatasetFeatureValues(t *testing.T) {
	dataset := newTestDataset(t)

	values, err := dataset.FeatureValues(context.Background(), "age")
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{2, 4, 4}, values)
}

func TestSQLDatasetSkipsNullRows(t *testing.T) {
	dataset := newTestDataset(t)

	values, err := dataset.FeatureValues(context.Background(), "height")
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{170, 180}, values)
}

func TestSQLDatasetUnknownFeature(t *testing.T) {
	dataset := newTestDataset(t)

	_, err := dataset.FeatureValues(context.Background(), "weight")
	assert.ErrorIs(t, err, errors.ErrFeatureNotFound)
}
