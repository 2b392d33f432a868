package prescription

import (
	"context"

	"github.com/rxdesk/rxdesk/internal/platform/forms"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// buildDocument turns a draft into the document to persist. Date parts keep
// only their digits. Rows without a medication name are skipped but still
// consume their 1-based position, so surviving lines keep the sequence they
// held on the form.
func buildDocument(userID int64, d Draft) *Document {
	doc := &Document{
		Prescription: Prescription{
			UserID: userID,
			Day:    forms.Digits(d.Day),
			Month:  forms.Digits(d.Month),
			Year:   forms.Digits(d.Year),
		},
		Patient:     d.Patient,
		Vitals:      d.Vitals,
		Medications: []MedicationLine{},
	}
	for i, line := range d.Lines {
		if line.MedName == "" {
			continue
		}
		doc.Medications = append(doc.Medications, MedicationLine{
			Sequence: i + 1,
			MedName:  line.MedName,
			Dose:     line.Dose,
			Form:     line.Form,
			Schedule: line.Schedule,
			Timing:   line.Timing,
			Duration: line.Duration,
			UserID:   userID,
		})
	}
	return doc
}

// Create validates and stores a new prescription, returning its id.
func (s *Service) Create(ctx context.Context, userID int64, d Draft) (int64, error) {
	if d.Patient.Name == "" {
		return 0, ErrMissingPatientName
	}
	doc := buildDocument(userID, d)
	if err := s.repo.Create(ctx, doc); err != nil {
		return 0, err
	}
	return doc.Prescription.ID, nil
}

// Get loads the full document, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Document, error) {
	return s.repo.GetDocument(ctx, userID, id)
}

// Update replaces the stored document with the submitted draft. The draft is
// the full intended medication list: stored lines missing from it are deleted.
func (s *Service) Update(ctx context.Context, userID, id int64, d Draft) error {
	owned, err := s.repo.Owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotFound
	}

	doc := buildDocument(userID, d)
	doc.Prescription.ID = id
	return s.repo.Update(ctx, doc)
}
