package search

import "time"

// Filters are the optional search form predicates. Empty fields are ignored.
// Day, month, year and sex match exactly; the rest match as case-insensitive
// substrings.
type Filters struct {
	Day         string
	Month       string
	Year        string
	PatientName string
	Age         string
	Sex         string
	MedName     string
	Form        string
	Dose        string
}

// Result is one row of search output or history: the prescription with the
// patient name and date fields a result list needs.
type Result struct {
	ID          int64     `json:"id"`
	PatientName string    `json:"patient_name"`
	Day         string    `json:"day"`
	Month       string    `json:"month"`
	Year        string    `json:"year"`
	CreatedAt   time.Time `json:"created_at"`
}

// MedicationRow is the slice of a medication line the suggestion index needs.
type MedicationRow struct {
	MedName  string
	Dose     string
	Form     string
	Schedule string
	Timing   string
	Duration string
}
