package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moderation-service/internal/entity"
	"moderation-service/internal/repository"
)

const submissionColumns = `id, content_type, content, status, risk_level, detected_issues,
confidence_score, processing_time, created_at, updated_at`

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CreateSubmission inserts a pending submission and its initial activity entry
// in one transaction.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, in entity.NewSubmission) (*entity.Submission, error) {
	const q = `
INSERT INTO submissions (content_type, content, status)
VALUES ($1, $2, 'pending')
RETURNING ` + submissionColumns + `;
`
	var sub *entity.Submission
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		sub, err = scanSubmission(tx.QueryRow(ctx, q, string(in.ContentType), in.Content))
		if err != nil {
			return err
		}
		if in.Activity == nil {
			return nil
		}
		a := *in.Activity
		a.Metadata = entity.CloneMetadata(a.Metadata)
		a.Metadata["analysisId"] = sub.ID.String()
		_, err = insertActivity(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

// UpdateSubmission locks the row, validates the transition and applies the
// update together with the optional activity entry.
func (r *SubmissionRepository) UpdateSubmission(ctx context.Context, id uuid.UUID, upd entity.SubmissionUpdate) (*entity.Submission, error) {
	const lockQ = `SELECT status FROM submissions WHERE id = $1 FOR UPDATE;`
	const updQ = `
UPDATE submissions SET
    status           = $2,
    risk_level       = COALESCE($3, risk_level),
    detected_issues  = COALESCE($4, detected_issues),
    confidence_score = COALESCE($5, confidence_score),
    processing_time  = COALESCE($6, processing_time),
    updated_at       = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
WHERE id = $1
RETURNING ` + submissionColumns + `;
`
	var (
		risk       *string
		issues     []byte
		confidence *int
		elapsed    *int
	)
	if v := upd.Verdict; v != nil {
		rl := string(v.RiskLevel)
		risk = &rl
		list := v.DetectedIssues
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encode detected issues: %w", err)
		}
		issues = b
		confidence = &v.ConfidenceScore
		elapsed = &v.ProcessingTime
	}

	var sub *entity.Submission
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, lockQ, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}
		from := entity.SubmissionStatus(current)
		if !entity.CanTransition(from, upd.Status) {
			return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, from, upd.Status)
		}

		var err error
		sub, err = scanSubmission(tx.QueryRow(ctx, updQ, id, string(upd.Status), risk, issues, confidence, elapsed))
		if err != nil {
			return err
		}
		if upd.Activity != nil {
			_, err = insertActivity(ctx, tx, *upd.Activity)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update submission %s: %w", id, err)
	}
	return sub, nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1;`

	sub, err := scanSubmission(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *SubmissionRepository) RecentSubmissions(ctx context.Context, limit int) ([]entity.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at DESC, id DESC LIMIT $1;`
	return r.list(ctx, q, limit)
}

func (r *SubmissionRepository) ListSubmissionsByStatus(ctx context.Context, status entity.SubmissionStatus) ([]entity.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = $1 ORDER BY created_at ASC, id ASC;`
	return r.list(ctx, q, string(status))
}

func (r *SubmissionRepository) list(ctx context.Context, q string, args ...any) ([]entity.Submission, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func scanSubmission(row pgx.Row) (*entity.Submission, error) {
	var (
		sub         entity.Submission
		contentType string
		status      string
		risk        *string
		issues      []byte
	)
	if err := row.Scan(
		&sub.ID,
		&contentType,
		&sub.Content,
		&status,
		&risk, // NULL => nil
		&issues,
		&sub.ConfidenceScore,
		&sub.ProcessingTime,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}

	sub.ContentType = entity.ContentType(contentType)
	sub.Status = entity.SubmissionStatus(status)
	if risk != nil {
		rl := entity.RiskLevel(*risk)
		sub.RiskLevel = &rl
	}
	sub.DetectedIssues = []string{}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &sub.DetectedIssues); err != nil {
			return nil, fmt.Errorf("decode detected issues: %w", err)
		}
	}
	return &sub, nil
}
