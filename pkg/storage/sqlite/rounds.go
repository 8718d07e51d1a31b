package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/fedstats/round"
	"github.com/absmach/fedstats/stats"
)

type RoundRepository interface {
	Create(ctx context.Context, r round.Round) (round.Round, error)
	Get(ctx context.Context, id string) (round.Round, error)
	Update(ctx context.Context, r round.Round) error
	List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error)
	Delete(ctx context.Context, id string) error
}

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

type dbRound struct {
	ID               string       `db:"id"`
	Name             string       `db:"name"`
	State            uint8        `db:"state"`
	SelectedFeatures []byte       `db:"selected_features"`
	Methods          []byte       `db:"aggregation_methods"`
	FractionSample   float64      `db:"fraction_sample"`
	MinNodes         int          `db:"min_nodes"`
	SampledNodes     []byte       `db:"sampled_nodes"`
	ValidReplies     int          `db:"valid_replies"`
	Results          []byte       `db:"results"`
	Error            *string      `db:"error"`
	StartTime        sql.NullTime `db:"start_time"`
	FinishTime       sql.NullTime `db:"finish_time"`
	CreatedAt        sql.NullTime `db:"created_at"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

func (r *roundRepo) Create(ctx context.Context, rnd round.Round) (round.Round, error) {
	query := `INSERT INTO rounds (id, name, state, selected_features, aggregation_methods, fraction_sample, min_nodes, sampled_nodes, valid_replies, results, error, start_time, finish_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	dbr, err := toDBRound(rnd)
	if err != nil {
		return round.Round{}, fmt.Errorf("marshal error: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		dbr.ID, dbr.Name, dbr.State, dbr.SelectedFeatures, dbr.Methods,
		dbr.FractionSample, dbr.MinNodes, dbr.SampledNodes, dbr.ValidReplies,
		dbr.Results, dbr.Error, nullTime(rnd.StartTime), nullTime(rnd.FinishTime),
		rnd.CreatedAt, rnd.UpdatedAt,
	)
	if err != nil {
		return round.Round{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return rnd, nil
}

func (r *roundRepo) Get(ctx context.Context, id string) (round.Round, error) {
	query := `SELECT id, name, state, selected_features, aggregation_methods, fraction_sample, min_nodes, sampled_nodes, valid_replies, results, error, start_time, finish_time, created_at, updated_at
		FROM rounds WHERE id = ?`

	var dbr dbRound
	if err := r.db.GetContext(ctx, &dbr, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return round.Round{}, ErrRoundNotFound
		}

		return round.Round{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toRound(dbr)
}

func (r *roundRepo) Update(ctx context.Context, rnd round.Round) error {
	query := `UPDATE rounds SET
		name = ?,
		state = ?,
		selected_features = ?,
		aggregation_methods = ?,
		fraction_sample = ?,
		min_nodes = ?,
		sampled_nodes = ?,
		valid_replies = ?,
		results = ?,
		error = ?,
		start_time = ?,
		finish_time = ?,
		updated_at = ?
	WHERE id = ?`

	dbr, err := toDBRound(rnd)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query,
		dbr.Name, dbr.State, dbr.SelectedFeatures, dbr.Methods,
		dbr.FractionSample, dbr.MinNodes, dbr.SampledNodes, dbr.ValidReplies,
		dbr.Results, dbr.Error, nullTime(rnd.StartTime), nullTime(rnd.FinishTime),
		rnd.UpdatedAt, rnd.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	if affected == 0 {
		return ErrRoundNotFound
	}

	return nil
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]round.Round, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rounds`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT id, name, state, selected_features, aggregation_methods, fraction_sample, min_nodes, sampled_nodes, valid_replies, results, error, start_time, finish_time, created_at, updated_at
		FROM rounds ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var dbRounds []dbRound
	if err := r.db.SelectContext(ctx, &dbRounds, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	rounds := make([]round.Round, 0, len(dbRounds))
	for _, dbr := range dbRounds {
		rnd, err := toRound(dbr)
		if err != nil {
			return nil, 0, err
		}
		rounds = append(rounds, rnd)
	}

	return rounds, total, nil
}

func (r *roundRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rounds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	if affected == 0 {
		return ErrRoundNotFound
	}

	return nil
}

func toDBRound(rnd round.Round) (dbRound, error) {
	features, err := jsonBytes(rnd.SelectedFeatures)
	if err != nil {
		return dbRound{}, err
	}
	methods, err := jsonBytes(rnd.Methods)
	if err != nil {
		return dbRound{}, err
	}
	sampled, err := jsonBytes(rnd.SampledNodes)
	if err != nil {
		return dbRound{}, err
	}
	results, err := jsonBytes(rnd.Results)
	if err != nil {
		return dbRound{}, err
	}

	return dbRound{
		ID:               rnd.ID,
		Name:             rnd.Name,
		State:            uint8(rnd.State),
		SelectedFeatures: features,
		Methods:          methods,
		FractionSample:   rnd.FractionSample,
		MinNodes:         rnd.MinNodes,
		SampledNodes:     sampled,
		ValidReplies:     rnd.ValidReplies,
		Results:          results,
		Error:            nullString(rnd.Error),
	}, nil
}

func toRound(dbr dbRound) (round.Round, error) {
	rnd := round.Round{
		ID:             dbr.ID,
		Name:           dbr.Name,
		State:          round.State(dbr.State),
		FractionSample: dbr.FractionSample,
		MinNodes:       dbr.MinNodes,
		ValidReplies:   dbr.ValidReplies,
	}

	if err := jsonValue(dbr.SelectedFeatures, &rnd.SelectedFeatures); err != nil {
		return round.Round{}, err
	}
	if err := jsonValue(dbr.Methods, &rnd.Methods); err != nil {
		return round.Round{}, err
	}
	if err := jsonValue(dbr.SampledNodes, &rnd.SampledNodes); err != nil {
		return round.Round{}, err
	}
	if len(dbr.Results) > 0 {
		var results stats.GlobalStatistics
		if err := json.Unmarshal(dbr.Results, &results); err != nil {
			return round.Round{}, fmt.Errorf("unmarshal error: %w", err)
		}
		rnd.Results = results
	}

	if dbr.Error != nil {
		rnd.Error = *dbr.Error
	}
	if dbr.StartTime.Valid {
		rnd.StartTime = dbr.StartTime.Time
	}
	if dbr.FinishTime.Valid {
		rnd.FinishTime = dbr.FinishTime.Time
	}
	if dbr.CreatedAt.Valid {
		rnd.CreatedAt = dbr.CreatedAt.Time
	}
	if dbr.UpdatedAt.Valid {
		rnd.UpdatedAt = dbr.UpdatedAt.Time
	}

	return rnd, nil
}
