package prescription

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

func (r *repoPG) Create(ctx context.Context, doc *Document) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		p := &doc.Prescription

		if err := q.QueryRow(ctx, `
			INSERT INTO prescriptions (user_id, day, month, year)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			p.UserID, p.Day, p.Month, p.Year).Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert prescription: %w", err)
		}

		doc.Patient.PrescriptionID = p.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO patients (prescription_id, patient_name, age, sex)
			VALUES ($1, $2, $3, $4)`,
			p.ID, doc.Patient.Name, doc.Patient.Age, doc.Patient.Sex); err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}

		doc.Vitals.PrescriptionID = p.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO vitals (prescription_id, chief_complaints, on_examination, test_advised, diagnosis)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, doc.Vitals.ChiefComplaints, doc.Vitals.OnExamination,
			doc.Vitals.TestAdvised, doc.Vitals.Diagnosis); err != nil {
			return fmt.Errorf("insert vitals: %w", err)
		}

		for i := range doc.Medications {
			m := &doc.Medications[i]
			m.PrescriptionID = p.ID
			m.UserID = p.UserID
			if err := insertLine(ctx, q, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertLine(ctx context.Context, q queryable, m *MedicationLine) error {
	_, err := q.Exec(ctx, `
		INSERT INTO medications (prescription_id, sequence, med_name, dose, form, schedule, timing, duration, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.PrescriptionID, m.Sequence, m.MedName, m.Dose, m.Form,
		m.Schedule, m.Timing, m.Duration, m.UserID)
	if err != nil {
		return fmt.Errorf("insert medication line %d: %w", m.Sequence, err)
	}
	return nil
}

func (r *repoPG) GetDocument(ctx context.Context, userID, id int64) (*Document, error) {
	q := r.conn(ctx)
	var doc Document

	err := q.QueryRow(ctx, `
		SELECT id, user_id, day, month, year, created_at
		FROM prescriptions WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&doc.Prescription.ID, &doc.Prescription.UserID,
			&doc.Prescription.Day, &doc.Prescription.Month, &doc.Prescription.Year,
			&doc.Prescription.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load prescription: %w", err)
	}

	err = q.QueryRow(ctx, `
		SELECT prescription_id, patient_name, age, sex
		FROM patients WHERE prescription_id = $1`, id).
		Scan(&doc.Patient.PrescriptionID, &doc.Patient.Name, &doc.Patient.Age, &doc.Patient.Sex)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	err = q.QueryRow(ctx, `
		SELECT prescription_id, chief_complaints, on_examination, test_advised, diagnosis
		FROM vitals WHERE prescription_id = $1`, id).
		Scan(&doc.Vitals.PrescriptionID, &doc.Vitals.ChiefComplaints,
			&doc.Vitals.OnExamination, &doc.Vitals.TestAdvised, &doc.Vitals.Diagnosis)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load vitals: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT prescription_id, sequence, med_name, dose, form, schedule, timing, duration, user_id
		FROM medications WHERE prescription_id = $1 ORDER BY sequence ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}
	defer rows.Close()

	doc.Medications = []MedicationLine{}
	for rows.Next() {
		var m MedicationLine
		if err := rows.Scan(&m.PrescriptionID, &m.Sequence, &m.MedName, &m.Dose,
			&m.Form, &m.Schedule, &m.Timing, &m.Duration, &m.UserID); err != nil {
			return nil, err
		}
		doc.Medications = append(doc.Medications, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repoPG) Owned(ctx context.Context, userID, id int64) (bool, error) {
	var owned bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prescriptions WHERE id = $1 AND user_id = $2)`,
		id, userID).Scan(&owned)
	return owned, err
}

func (r *repoPG) Update(ctx context.Context, doc *Document) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)
		p := doc.Prescription

		if _, err := q.Exec(ctx, `
			UPDATE prescriptions SET day = $2, month = $3, year = $4 WHERE id = $1`,
			p.ID, p.Day, p.Month, p.Year); err != nil {
			return fmt.Errorf("update prescription: %w", err)
		}

		if _, err := q.Exec(ctx, `
			UPDATE patients SET patient_name = $2, age = $3, sex = $4 WHERE prescription_id = $1`,
			p.ID, doc.Patient.Name, doc.Patient.Age, doc.Patient.Sex); err != nil {
			return fmt.Errorf("update patient: %w", err)
		}

		if _, err := q.Exec(ctx, `
			UPDATE vitals SET chief_complaints = $2, on_examination = $3, test_advised = $4, diagnosis = $5
			WHERE prescription_id = $1`,
			p.ID, doc.Vitals.ChiefComplaints, doc.Vitals.OnExamination,
			doc.Vitals.TestAdvised, doc.Vitals.Diagnosis); err != nil {
			return fmt.Errorf("update vitals: %w", err)
		}

		stored := map[int]bool{}
		rows, err := q.Query(ctx,
			`SELECT sequence FROM medications WHERE prescription_id = $1`, p.ID)
		if err != nil {
			return fmt.Errorf("load stored sequences: %w", err)
		}
		for rows.Next() {
			var seq int
			if err := rows.Scan(&seq); err != nil {
				rows.Close()
				return err
			}
			stored[seq] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		submitted := map[int]bool{}
		for i := range doc.Medications {
			m := &doc.Medications[i]
			m.PrescriptionID = p.ID
			m.UserID = p.UserID
			submitted[m.Sequence] = true

			if stored[m.Sequence] {
				if _, err := q.Exec(ctx, `
					UPDATE medications SET med_name = $3, dose = $4, form = $5,
						schedule = $6, timing = $7, duration = $8
					WHERE prescription_id = $1 AND sequence = $2`,
					m.PrescriptionID, m.Sequence, m.MedName, m.Dose, m.Form,
					m.Schedule, m.Timing, m.Duration); err != nil {
					return fmt.Errorf("update medication line %d: %w", m.Sequence, err)
				}
			} else if err := insertLine(ctx, q, m); err != nil {
				return err
			}
		}

		// Stored lines dropped from the form are removed for real.
		for seq := range stored {
			if submitted[seq] {
				continue
			}
			if _, err := q.Exec(ctx,
				`DELETE FROM medications WHERE prescription_id = $1 AND sequence = $2`,
				p.ID, seq); err != nil {
				return fmt.Errorf("delete medication line %d: %w", seq, err)
			}
		}
		return nil
	})
}
