package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/entity"
)

// pgxPool is the subset of *pgxpool.Pool used by the repositories.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SubmissionsRepository journals intake outcomes.
type SubmissionsRepository interface {
	Record(ctx context.Context, submission entity.Submission) error
	List(ctx context.Context, filter dto.SubmissionFilter) ([]entity.Submission, error)
}

// PGXSubmissionsRepository implements SubmissionsRepository with pgx.
type PGXSubmissionsRepository struct {
	pool pgxPool
}

// NewPGXSubmissionsRepository instantiates a submissions repository.
func NewPGXSubmissionsRepository(pool pgxPool) *PGXSubmissionsRepository {
	return &PGXSubmissionsRepository{pool: pool}
}

// Record inserts one journal row.
func (r *PGXSubmissionsRepository) Record(ctx context.Context, s entity.Submission) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO lead_submissions (id, outcome, reason, lead_score, ip, user_agent, request_id, prestation, postal_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, s.ID, s.Outcome, s.Reason, s.LeadScore, s.IP, s.UserAgent, s.RequestID, s.Prestation, s.PostalCode, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// List returns the most recent journal rows, newest first.
func (r *PGXSubmissionsRepository) List(ctx context.Context, filter dto.SubmissionFilter) ([]entity.Submission, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
		clauses = append(clauses, fmt.Sprintf("outcome = $%d", len(args)))
	}
	args = append(args, filter.Limit)

	query := `SELECT id, outcome, reason, lead_score, ip, user_agent, request_id, prestation, postal_code, created_at FROM lead_submissions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	submissions := make([]entity.Submission, 0)
	for rows.Next() {
		var s entity.Submission
		if err := rows.Scan(&s.ID, &s.Outcome, &s.Reason, &s.LeadScore, &s.IP, &s.UserAgent, &s.RequestID, &s.Prestation, &s.PostalCode, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}
