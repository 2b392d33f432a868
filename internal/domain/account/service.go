package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput is the full registration form: credentials plus the optional
// doctor and clinic profiles.
type RegisterInput struct {
	Username     string
	Password     string
	Confirmation string
	Doctor       DoctorProfile
	Clinic       ClinicProfile
}

// Register validates the form and creates the user with both profiles in one
// transaction. Nothing is persisted on any failure.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Username == "" {
		return nil, ErrMissingUsername
	}
	if in.Password == "" {
		return nil, ErrMissingPassword
	}
	if in.Password != in.Confirmation {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Username: in.Username, PasswordHash: string(hash)}
	if err := s.repo.CreateAccount(ctx, u, &in.Doctor, &in.Clinic); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials. Unknown username and wrong password both
// collapse into ErrInvalidCredentials so the response leaks neither.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UsernameTaken reports whether the name is already registered. Comparison is
// case-sensitive everywhere usernames are matched.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.repo.UsernameExists(ctx, username)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// VerifyPassword re-checks the current password for the confirm gate.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, password, confirmation string) error {
	if password == "" {
		return ErrMissingPassword
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *Service) Profiles(ctx context.Context, userID int64) (*DoctorProfile, *ClinicProfile, error) {
	return s.repo.GetProfiles(ctx, userID)
}

func (s *Service) UpdateProfiles(ctx context.Context, userID int64, d DoctorProfile, cl ClinicProfile) error {
	return s.repo.UpdateProfiles(ctx, userID, d, cl)
}
