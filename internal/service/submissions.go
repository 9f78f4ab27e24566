package service

import (
	"context"
	"errors"

	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/entity"
	"github.com/octobees/desamiantage-leads/internal/repository"
)

const (
	defaultSubmissionsLimit = 50
	maxSubmissionsLimit     = 200
)

// ErrUnknownOutcome is returned when filtering on an outcome that does not exist.
var ErrUnknownOutcome = errors.New("unknown outcome")

// SubmissionsService exposes the intake journal to operators.
type SubmissionsService struct {
	repo repository.SubmissionsRepository
}

// NewSubmissionsService creates a new instance of SubmissionsService.
func NewSubmissionsService(repo repository.SubmissionsRepository) *SubmissionsService {
	return &SubmissionsService{repo: repo}
}

// List returns recent journal entries, newest first, applying limit defaults.
func (s *SubmissionsService) List(ctx context.Context, filter dto.SubmissionFilter) ([]entity.Submission, error) {
	if filter.Outcome != "" && !entity.IsOutcome(filter.Outcome) {
		return nil, ErrUnknownOutcome
	}
	filter.Limit = EffectiveLimit(filter.Limit)
	return s.repo.List(ctx, filter)
}

// EffectiveLimit applies the listing default and cap to a requested limit.
func EffectiveLimit(requested int) int {
	switch {
	case requested <= 0:
		return defaultSubmissionsLimit
	case requested > maxSubmissionsLimit:
		return maxSubmissionsLimit
	default:
		return requested
	}
}
