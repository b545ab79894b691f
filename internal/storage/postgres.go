package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timefilter/internal/expr"
	"timefilter/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createPresetsTable = `
	CREATE TABLE IF NOT EXISTS time_presets (
		name        TEXT PRIMARY KEY,
		range_start TIMESTAMPTZ NOT NULL,
		range_end   TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (range_end >= range_start)
	)`

// PostgresStore keeps presets in the time_presets table
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and makes sure the table exists
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createPresetsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create time_presets: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.TimePreset, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, range_start, range_end FROM time_presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.TimePreset{}
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, preset)
	}
	return results, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, name string) (models.TimePreset, error) {
	row := s.Pool.QueryRow(ctx, `SELECT name, range_start, range_end FROM time_presets WHERE name=$1`, name)
	preset, err := scanPreset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TimePreset{}, ErrNotFound
	}
	return preset, err
}

func (s *PostgresStore) Save(ctx context.Context, preset models.TimePreset) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO time_presets (name, range_start, range_end, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (name) DO UPDATE
		SET range_start=EXCLUDED.range_start, range_end=EXCLUDED.range_end, updated_at=now()`,
		preset.Name(), preset.TimeRange().Start(), preset.TimeRange().End(),
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM time_presets WHERE name=$1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPreset(row pgx.Row) (models.TimePreset, error) {
	var (
		name       string
		start, end time.Time
	)
	if err := row.Scan(&name, &start, &end); err != nil {
		return models.TimePreset{}, err
	}
	tr, err := expr.NewTimeRange(start, end)
	if err != nil {
		return models.TimePreset{}, fmt.Errorf("time preset '%s': %w", name, err)
	}
	return models.NewTimePreset(name, tr), nil
}
