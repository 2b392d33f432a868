package search

import (
	"context"

	"github.com/rxdesk/rxdesk/internal/platform/forms"
	"github.com/rxdesk/rxdesk/pkg/pagination"
)

const suggestLimit = 10

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Find runs the filtered search. Age and dose are reduced to their digits
// before matching, the same normalization applied when they were stored.
func (s *Service) Find(ctx context.Context, userID int64, f Filters, page pagination.Params) ([]Result, error) {
	f.Age = forms.Digits(f.Age)
	f.Dose = forms.Digits(f.Dose)
	return s.repo.Find(ctx, userID, f, page)
}

// Probe reports whether the prescription exists and belongs to the user.
func (s *Service) Probe(ctx context.Context, userID, prescriptionID int64) (bool, error) {
	return s.repo.Owned(ctx, userID, prescriptionID)
}

func (s *Service) History(ctx context.Context, userID int64) ([]Result, error) {
	return s.repo.History(ctx, userID)
}

func (s *Service) Suggest(ctx context.Context, userID int64, field, value string) ([]string, error) {
	if value == "" {
		return []string{}, nil
	}
	return s.repo.Suggest(ctx, userID, field, value, suggestLimit)
}

// SuggestionIndex builds the medication autocomplete index sent with the full
// reference bundle.
func (s *Service) SuggestionIndex(ctx context.Context, userID int64) (map[string]MedSuggestion, error) {
	lines, err := s.repo.LinesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildSuggestionIndex(lines), nil
}
