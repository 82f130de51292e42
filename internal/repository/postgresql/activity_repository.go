package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moderation-service/internal/entity"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) AppendActivity(ctx context.Context, in entity.NewActivity) (*entity.ActivityLog, error) {
	entry, err := insertActivity(ctx, r.pool, in)
	if err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}
	return entry, nil
}

func (r *ActivityRepository) RecentActivity(ctx context.Context, limit int) ([]entity.ActivityLog, error) {
	const q = `
SELECT id, type, title, description, metadata, created_at
FROM activity_logs
ORDER BY created_at DESC, id DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.ActivityLog{}
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

func insertActivity(ctx context.Context, q querier, in entity.NewActivity) (*entity.ActivityLog, error) {
	const stmt = `
INSERT INTO activity_logs (type, title, description, metadata)
VALUES ($1, $2, $3, $4)
RETURNING id, type, title, description, metadata, created_at;
`
	meta := in.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return scanActivity(q.QueryRow(ctx, stmt, string(in.Type), in.Title, in.Description, raw))
}

func scanActivity(row pgx.Row) (*entity.ActivityLog, error) {
	var (
		entry entity.ActivityLog
		typ   string
		meta  []byte
	)
	if err := row.Scan(&entry.ID, &typ, &entry.Title, &entry.Description, &meta, &entry.CreatedAt); err != nil {
		return nil, err
	}
	entry.Type = entity.ActivityType(typ)
	entry.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &entry, nil
}
