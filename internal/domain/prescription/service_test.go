package prescription

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type mockRepo struct {
	nextID int64
	docs   map[int64]*Document

	failCreate error
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[int64]*Document)}
}

func copyDoc(doc *Document) *Document {
	cp := *doc
	cp.Medications = append([]MedicationLine{}, doc.Medications...)
	return &cp
}

func (m *mockRepo) Create(_ context.Context, doc *Document) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.nextID++
	doc.Prescription.ID = m.nextID
	m.docs[doc.Prescription.ID] = copyDoc(doc)
	return nil
}

func (m *mockRepo) GetDocument(_ context.Context, userID, id int64) (*Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.Prescription.UserID != userID {
		return nil, ErrNotFound
	}
	cp := copyDoc(doc)
	sort.Slice(cp.Medications, func(i, j int) bool {
		return cp.Medications[i].Sequence < cp.Medications[j].Sequence
	})
	return cp, nil
}

func (m *mockRepo) Owned(_ context.Context, userID, id int64) (bool, error) {
	doc, ok := m.docs[id]
	return ok && doc.Prescription.UserID == userID, nil
}

func (m *mockRepo) Update(_ context.Context, doc *Document) error {
	stored, ok := m.docs[doc.Prescription.ID]
	if !ok {
		return ErrNotFound
	}
	// Reconciliation nets out to the submitted list replacing the stored one.
	doc.Prescription.CreatedAt = stored.Prescription.CreatedAt
	m.docs[doc.Prescription.ID] = copyDoc(doc)
	return nil
}

func draft() Draft {
	return Draft{
		Day:   "07",
		Month: "04",
		Year:  "2026",
		Patient: Patient{
			Name: "Jane Doe",
			Age:  "42",
			Sex:  "F",
		},
		Vitals: Vitals{
			ChiefComplaints: "fever",
			Diagnosis:       "viral infection",
		},
		Lines: []LineInput{
			{MedName: "Paracetamol", Dose: "500mg", Form: "tablet"},
			{},
			{MedName: "Ibuprofen", Dose: "200mg"},
		},
	}
}

func TestCreate_PreservesSequenceGaps(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), 1, draft())
	if err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Get(context.Background(), 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Medications) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Medications))
	}
	if doc.Medications[0].Sequence != 1 || doc.Medications[1].Sequence != 3 {
		t.Errorf("expected sequences 1 and 3, got %d and %d",
			doc.Medications[0].Sequence, doc.Medications[1].Sequence)
	}
}

func TestCreate_NormalizesDates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	d := draft()
	d.Day = "7th"
	d.Month = " 04 "
	d.Year = "2026 AD"
	id, err := svc.Create(context.Background(), 1, d)
	if err != nil {
		t.Fatal(err)
	}

	doc, _ := svc.Get(context.Background(), 1, id)
	if doc.Prescription.Day != "7" || doc.Prescription.Month != "04" || doc.Prescription.Year != "2026" {
		t.Errorf("dates not normalized: %q %q %q",
			doc.Prescription.Day, doc.Prescription.Month, doc.Prescription.Year)
	}
}

func TestCreate_RequiresPatientName(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	d := draft()
	d.Patient.Name = ""
	if _, err := svc.Create(context.Background(), 1, d); !errors.Is(err, ErrMissingPatientName) {
		t.Errorf("expected ErrMissingPatientName, got %v", err)
	}
	if len(repo.docs) != 0 {
		t.Error("failed create must persist nothing")
	}
}

func TestGet_CrossOwnerIsNotFound(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), 1, draft())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(context.Background(), 2, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner must see ErrNotFound, got %v", err)
	}
}

func TestUpdate_CrossOwnerIsNotFound(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), 1, draft())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Update(context.Background(), 2, id, draft()); !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner must see ErrNotFound, got %v", err)
	}
}

func TestUpdate_ChangingOnlyDiagnosisRoundTrips(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), 1, draft())
	if err != nil {
		t.Fatal(err)
	}

	d := draft()
	d.Vitals.Diagnosis = "bacterial infection"
	if err := svc.Update(context.Background(), 1, id, d); err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Get(context.Background(), 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Vitals.Diagnosis != "bacterial infection" {
		t.Errorf("diagnosis not updated: %q", doc.Vitals.Diagnosis)
	}
	if doc.Patient.Name != "Jane Doe" || doc.Prescription.Day != "07" {
		t.Error("unrelated fields must survive the edit")
	}
	if len(doc.Medications) != 2 || doc.Medications[1].Sequence != 3 {
		t.Errorf("medication lines must survive the edit: %+v", doc.Medications)
	}
}

func TestUpdate_DeletesDroppedLines(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), 1, draft())
	if err != nil {
		t.Fatal(err)
	}

	d := draft()
	d.Lines = []LineInput{{MedName: "Paracetamol", Dose: "500mg"}}
	if err := svc.Update(context.Background(), 1, id, d); err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Get(context.Background(), 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Medications) != 1 || doc.Medications[0].MedName != "Paracetamol" {
		t.Errorf("dropped line must be deleted: %+v", doc.Medications)
	}
}

func TestCreateThenUpdateFlow(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id, err := svc.Create(ctx, 1, draft())
	if err != nil {
		t.Fatal(err)
	}

	d := draft()
	d.Lines = append(d.Lines, LineInput{MedName: "Cetirizine", Dose: "10mg"})
	if err := svc.Update(ctx, 1, id, d); err != nil {
		t.Fatal(err)
	}

	doc, err := svc.Get(ctx, 1, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Medications) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(doc.Medications))
	}
	if doc.Medications[2].MedName != "Cetirizine" || doc.Medications[2].Sequence != 4 {
		t.Errorf("new line must take position 4: %+v", doc.Medications[2])
	}
}
