package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rxdesk/rxdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) CreateAccount(ctx context.Context, u *User, d *DoctorProfile, cl *ClinicProfile) error {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		if err := q.QueryRow(ctx, `
			INSERT INTO users (username, password_hash)
			VALUES ($1, $2)
			RETURNING id, created_at`,
			u.Username, u.PasswordHash).Scan(&u.ID, &u.CreatedAt); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO doctors (user_id, name, qualification, department, registration)
			VALUES ($1, $2, $3, $4, $5)`,
			u.ID, d.Name, d.Qualification, d.Department, d.Registration); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO clinics (user_id, name, address, contact, email)
			VALUES ($1, $2, $3, $4, $5)`,
			u.ID, cl.Name, cl.Address, cl.Contact, cl.Email); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, db.ErrDuplicate) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	d.UserID = u.ID
	cl.UserID = u.ID
	return nil
}

func (r *repoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username))
}

func (r *repoPG) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *repoPG) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) GetProfiles(ctx context.Context, userID int64) (*DoctorProfile, *ClinicProfile, error) {
	q := r.conn(ctx)

	var d DoctorProfile
	err := q.QueryRow(ctx, `
		SELECT user_id, name, qualification, department, registration
		FROM doctors WHERE user_id = $1`, userID).
		Scan(&d.UserID, &d.Name, &d.Qualification, &d.Department, &d.Registration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var cl ClinicProfile
	err = q.QueryRow(ctx, `
		SELECT user_id, name, address, contact, email
		FROM clinics WHERE user_id = $1`, userID).
		Scan(&cl.UserID, &cl.Name, &cl.Address, &cl.Contact, &cl.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	return &d, &cl, nil
}

func (r *repoPG) UpdateProfiles(ctx context.Context, userID int64, d DoctorProfile, cl ClinicProfile) error {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		if _, err := q.Exec(ctx, `
			UPDATE doctors SET name = $2, qualification = $3, department = $4, registration = $5
			WHERE user_id = $1`,
			userID, d.Name, d.Qualification, d.Department, d.Registration); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			UPDATE clinics SET name = $2, address = $3, contact = $4, email = $5
			WHERE user_id = $1`,
			userID, cl.Name, cl.Address, cl.Contact, cl.Email); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update profiles: %w", err)
	}
	return nil
}
