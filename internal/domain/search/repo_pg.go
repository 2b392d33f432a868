package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rxdesk/rxdesk/internal/platform/db"
	"github.com/rxdesk/rxdesk/pkg/pagination"
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

func (r *repoPG) Find(ctx context.Context, userID int64, f Filters, page pagination.Params) ([]Result, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT prescriptions.id, patients.patient_name,
			prescriptions.day, prescriptions.month, prescriptions.year,
			prescriptions.created_at
		FROM prescriptions
		JOIN patients ON prescriptions.id = patients.prescription_id
		LEFT JOIN medications ON prescriptions.id = medications.prescription_id
		WHERE prescriptions.user_id = $1`)
	args := []interface{}{userID}

	preds := []struct {
		column    string
		value     string
		substring bool
	}{
		{"prescriptions.day", f.Day, false},
		{"prescriptions.month", f.Month, false},
		{"prescriptions.year", f.Year, false},
		{"patients.patient_name", f.PatientName, true},
		{"patients.age", f.Age, true},
		{"patients.sex", f.Sex, false},
		{"medications.med_name", f.MedName, true},
		{"medications.form", f.Form, true},
		{"medications.dose", f.Dose, true},
	}
	for _, p := range preds {
		if p.value == "" {
			continue
		}
		if p.substring {
			fmt.Fprintf(&sb, " AND LOWER(%s) LIKE LOWER($%d)", p.column, len(args)+1)
			args = append(args, "%"+p.value+"%")
		} else {
			fmt.Fprintf(&sb, " AND %s = $%d", p.column, len(args)+1)
			args = append(args, p.value)
		}
	}

	// Grouping collapses the medication fan-out to one row per prescription.
	sb.WriteString(` GROUP BY prescriptions.id, patients.prescription_id
		ORDER BY prescriptions.created_at DESC`)
	if clause := page.SQL(); clause != "" {
		sb.WriteString(" " + clause)
	}

	rows, err := r.conn(ctx).Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search prescriptions: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (r *repoPG) Owned(ctx context.Context, userID, prescriptionID int64) (bool, error) {
	var owned bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prescriptions WHERE id = $1 AND user_id = $2)`,
		prescriptionID, userID).Scan(&owned)
	return owned, err
}

func (r *repoPG) History(ctx context.Context, userID int64) ([]Result, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT prescriptions.id, COALESCE(patients.patient_name, ''),
			prescriptions.day, prescriptions.month, prescriptions.year,
			prescriptions.created_at
		FROM prescriptions
		LEFT JOIN patients ON prescriptions.id = patients.prescription_id
		WHERE prescriptions.user_id = $1
		ORDER BY prescriptions.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]Result, error) {
	results := []Result{}
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.PatientName, &res.Day, &res.Month, &res.Year, &res.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// suggestField binds an autocomplete field to a fixed table/column pair. Only
// these identifiers ever reach the SQL text; the user supplies values alone.
type suggestField struct {
	table     string
	column    string
	base      string
	substring bool
}

var suggestFields = map[string]suggestField{
	"patient_name": {"patients", "patient_name", "patient_name", true},
	"age":          {"patients", "age", "patient_name", false},
	"sex":          {"patients", "sex", "patient_name", false},
	"med_name":     {"medications", "med_name", "med_name", true},
	"dose":         {"medications", "dose", "med_name", false},
	"form":         {"medications", "form", "med_name", false},
}

func (r *repoPG) Suggest(ctx context.Context, userID int64, field, value string, limit int) ([]string, error) {
	spec, ok := suggestFields[field]
	if !ok {
		return []string{}, nil
	}

	op := "="
	if spec.substring {
		op = "LIKE"
		value = "%" + value + "%"
	}

	var query string
	if spec.table == "medications" {
		query = fmt.Sprintf(`
			SELECT medications.%[1]s FROM medications
			WHERE medications.user_id = $1 AND LOWER(medications.%[2]s) %[3]s LOWER($2)
			GROUP BY medications.%[1]s ORDER BY COUNT(*) DESC LIMIT $3`,
			spec.column, spec.base, op)
	} else {
		// patients carries no user_id, so scope through the owning prescription.
		query = fmt.Sprintf(`
			SELECT patients.%[1]s FROM patients
			JOIN prescriptions ON prescriptions.id = patients.prescription_id
			WHERE prescriptions.user_id = $1 AND LOWER(patients.%[2]s) %[3]s LOWER($2)
			GROUP BY patients.%[1]s ORDER BY COUNT(*) DESC LIMIT $3`,
			spec.column, spec.base, op)
	}

	rows, err := r.conn(ctx).Query(ctx, query, userID, value, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", field, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *repoPG) LinesByUser(ctx context.Context, userID int64) ([]MedicationRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT med_name, dose, form, schedule, timing, duration
		FROM medications WHERE user_id = $1
		ORDER BY prescription_id, sequence`, userID)
	if err != nil {
		return nil, fmt.Errorf("load medication lines: %w", err)
	}
	defer rows.Close()

	var lines []MedicationRow
	for rows.Next() {
		var m MedicationRow
		if err := rows.Scan(&m.MedName, &m.Dose, &m.Form, &m.Schedule, &m.Timing, &m.Duration); err != nil {
			return nil, err
		}
		lines = append(lines, m)
	}
	return lines, rows.Err()
}
