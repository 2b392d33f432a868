package prescription

import "context"

// Repository persists prescription documents. Create and Update are atomic:
// either every row of the document lands or none do.
type Repository interface {
	// Create inserts the prescription with its patient, vitals and
	// medication lines in one transaction and sets doc.Prescription.ID.
	Create(ctx context.Context, doc *Document) error

	// GetDocument loads the full document, medications ordered by sequence.
	// Missing or not owned by userID yields ErrNotFound.
	GetDocument(ctx context.Context, userID, id int64) (*Document, error)

	Owned(ctx context.Context, userID, id int64) (bool, error)

	// Update rewrites the document in one transaction, reconciling
	// medication lines against the stored sequences: matching sequences are
	// updated in place, new ones inserted, stored sequences absent from the
	// document deleted.
	Update(ctx context.Context, doc *Document) error
}
