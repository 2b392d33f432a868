package account

import "context"

// Repository persists accounts and their doctor/clinic profiles.
type Repository interface {
	// CreateAccount inserts the user and both profiles atomically and sets
	// u.ID. A duplicate username surfaces as ErrUsernameTaken.
	CreateAccount(ctx context.Context, u *User, d *DoctorProfile, cl *ClinicProfile) error

	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error

	GetProfiles(ctx context.Context, userID int64) (*DoctorProfile, *ClinicProfile, error)
	// UpdateProfiles rewrites both profiles atomically.
	UpdateProfiles(ctx context.Context, userID int64, d DoctorProfile, cl ClinicProfile) error
}
