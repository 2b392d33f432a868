package account

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrMissingUsername    = errors.New("missing username")
	ErrMissingPassword    = errors.New("missing password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// DoctorProfile is the prescriber identity printed on every prescription.
type DoctorProfile struct {
	UserID        int64  `json:"-"`
	Name          string `json:"name"`
	Qualification string `json:"qualification"`
	Department    string `json:"department"`
	Registration  string `json:"registration"`
}

// ClinicProfile is the practice letterhead attached to the account.
type ClinicProfile struct {
	UserID  int64  `json:"-"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}
