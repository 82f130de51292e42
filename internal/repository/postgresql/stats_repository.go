package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
)

// statsLockKey is the pg_advisory_xact_lock key serializing snapshot writers.
const statsLockKey int64 = 0x6d6f645f73746174

const statsColumns = `id, total_analyzed, flagged_content, queue_length, accuracy_rate, updated_at`

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) CurrentStats(ctx context.Context) (*entity.SystemStats, error) {
	st, err := latestStats(ctx, r.pool)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (r *StatsRepository) WriteStats(ctx context.Context, snap entity.SystemStats) (*entity.SystemStats, error) {
	var out *entity.SystemStats
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, statsLockKey); err != nil {
			return err
		}
		var err error
		out, err = insertStats(ctx, tx, snap)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("write stats: %w", err)
	}
	return out, nil
}

// ApplyStats derives and inserts the next snapshot while holding the advisory
// lock. Each statement in READ COMMITTED takes a fresh snapshot, so the read
// after acquiring the lock sees the row written by the previous holder.
func (r *StatsRepository) ApplyStats(ctx context.Context, d entity.StatsDelta) (*entity.SystemStats, error) {
	var out *entity.SystemStats
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, statsLockKey); err != nil {
			return err
		}
		var cur entity.SystemStats
		latest, err := latestStats(ctx, tx)
		switch {
		case err == nil:
			cur = *latest
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return err
		}
		out, err = insertStats(ctx, tx, cur.Apply(d))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply stats: %w", err)
	}
	return out, nil
}

func latestStats(ctx context.Context, q querier) (*entity.SystemStats, error) {
	stmt := `SELECT ` + statsColumns + ` FROM system_stats ORDER BY updated_at DESC, id DESC LIMIT 1;`
	return scanStats(q.QueryRow(ctx, stmt))
}

func insertStats(ctx context.Context, q querier, s entity.SystemStats) (*entity.SystemStats, error) {
	stmt := `
INSERT INTO system_stats (total_analyzed, flagged_content, queue_length, accuracy_rate, updated_at)
VALUES ($1, $2, $3, $4, GREATEST(clock_timestamp(),
    (SELECT max(updated_at) + interval '1 microsecond' FROM system_stats)))
RETURNING ` + statsColumns + `;
`
	return scanStats(q.QueryRow(ctx, stmt, s.TotalAnalyzed, s.FlaggedContent, s.QueueLength, s.AccuracyRate))
}

func scanStats(row pgx.Row) (*entity.SystemStats, error) {
	var s entity.SystemStats
	if err := row.Scan(&s.ID, &s.TotalAnalyzed, &s.FlaggedContent, &s.QueueLength, &s.AccuracyRate, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
