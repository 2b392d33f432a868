package prescription

import (
	"errors"
	"time"
)

var (
	// ErrNotFound covers both a missing prescription and one owned by
	// someone else; callers must not be able to tell them apart.
	ErrNotFound = errors.New("prescription not found")

	ErrMissingPatientName = errors.New("missing patient name")
)

type Prescription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Day       string    `json:"day"`
	Month     string    `json:"month"`
	Year      string    `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

type Patient struct {
	PrescriptionID int64  `json:"-"`
	Name           string `json:"patient_name"`
	Age            string `json:"age"`
	Sex            string `json:"sex"`
}

type Vitals struct {
	PrescriptionID  int64  `json:"-"`
	ChiefComplaints string `json:"chief_complaints"`
	OnExamination   string `json:"on_examination"`
	TestAdvised     string `json:"test_advised"`
	Diagnosis       string `json:"diagnosis"`
}

// MedicationLine is one ordered row of the prescription. Sequence is the
// 1-based position the line held on the submitted form; removed lines leave
// gaps rather than renumbering the rest.
type MedicationLine struct {
	PrescriptionID int64  `json:"-"`
	Sequence       int    `json:"sequence"`
	MedName        string `json:"med_name"`
	Dose           string `json:"dose"`
	Form           string `json:"form"`
	Schedule       string `json:"schedule"`
	Timing         string `json:"timing"`
	Duration       string `json:"duration"`
	UserID         int64  `json:"-"`
}

// Document is the full prescription as the view and edit pages consume it.
type Document struct {
	Prescription Prescription     `json:"prescription"`
	Patient      Patient          `json:"patient"`
	Vitals       Vitals           `json:"vitals"`
	Medications  []MedicationLine `json:"medications"`
}

// LineInput is one raw row of the submitted medication table, empty rows
// included. Position in the Draft slice determines the stored sequence.
type LineInput struct {
	MedName  string
	Dose     string
	Form     string
	Schedule string
	Timing   string
	Duration string
}

// Draft is the submitted prescription form before validation.
type Draft struct {
	Day     string
	Month   string
	Year    string
	Patient Patient
	Vitals  Vitals
	Lines   []LineInput
}
