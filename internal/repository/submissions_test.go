package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/entity"
)

var submissionColumns = []string{"id", "outcome", "reason", "lead_score", "ip", "user_agent", "request_id", "prestation", "postal_code", "created_at"}

func TestRecordSubmission(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	score := 4
	submission := entity.Submission{
		ID:         uuid.New(),
		Outcome:    entity.OutcomeForwarded,
		LeadScore:  &score,
		IP:         "203.0.113.7",
		UserAgent:  "Mozilla/5.0",
		RequestID:  "req-1",
		Prestation: "retrait-amiante",
		PostalCode: "69003",
		CreatedAt:  time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO lead_submissions").
		WithArgs(submission.ID, submission.Outcome, "", &score, submission.IP, submission.UserAgent, submission.RequestID, submission.Prestation, submission.PostalCode, submission.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPGXSubmissionsRepository(mock)
	if err := repo.Record(context.Background(), submission); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordSubmissionError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO lead_submissions").WillReturnError(errors.New("connection reset"))

	repo := NewPGXSubmissionsRepository(mock)
	err = repo.Record(context.Background(), entity.Submission{ID: uuid.New(), Outcome: entity.OutcomeInvalid})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestListSubmissions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	score := 3
	first := uuid.New()
	second := uuid.New()
	now := time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

	rows := mock.NewRows(submissionColumns).
		AddRow(first, entity.OutcomeForwarded, "", &score, "203.0.113.7", "Mozilla/5.0", "req-2", "diagnostic-amiante", "75002", now).
		AddRow(second, entity.OutcomeInvalid, "invalid lead: email: Champ requis", (*int)(nil), "198.51.100.4", "curl/8.0", "req-1", "", "", now.Add(-time.Minute))

	mock.ExpectQuery(`SELECT id, outcome, .* FROM lead_submissions ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(rows)

	repo := NewPGXSubmissionsRepository(mock)
	submissions, err := repo.List(context.Background(), dto.SubmissionFilter{Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(submissions))
	}
	if submissions[0].ID != first || submissions[0].LeadScore == nil || *submissions[0].LeadScore != 3 {
		t.Fatalf("unexpected first submission: %+v", submissions[0])
	}
	if submissions[1].LeadScore != nil || submissions[1].Outcome != entity.OutcomeInvalid {
		t.Fatalf("unexpected second submission: %+v", submissions[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSubmissionsByOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM lead_submissions WHERE outcome = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(entity.OutcomeHoneypot, 10).
		WillReturnRows(mock.NewRows(submissionColumns))

	repo := NewPGXSubmissionsRepository(mock)
	submissions, err := repo.List(context.Background(), dto.SubmissionFilter{Limit: 10, Outcome: entity.OutcomeHoneypot})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(submissions) != 0 {
		t.Fatalf("expected empty result, got %d", len(submissions))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSubmissionsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM lead_submissions").WithArgs(50).WillReturnError(errors.New("boom"))

	repo := NewPGXSubmissionsRepository(mock)
	if _, err := repo.List(context.Background(), dto.SubmissionFilter{Limit: 50}); err == nil {
		t.Fatalf("expected error")
	}
}
