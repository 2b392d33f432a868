package search

import (
	"context"

	"github.com/rxdesk/rxdesk/pkg/pagination"
)

// Repository runs the read-side queries behind search, autocomplete and
// history. Every query is scoped to the requesting user.
type Repository interface {
	Find(ctx context.Context, userID int64, f Filters, page pagination.Params) ([]Result, error)
	Owned(ctx context.Context, userID, prescriptionID int64) (bool, error)
	History(ctx context.Context, userID int64) ([]Result, error)
	// Suggest returns up to limit distinct values for an allow-listed field,
	// most frequent first. An unknown field yields an empty result.
	Suggest(ctx context.Context, userID int64, field, value string, limit int) ([]string, error)
	LinesByUser(ctx context.Context, userID int64) ([]MedicationRow, error)
}
