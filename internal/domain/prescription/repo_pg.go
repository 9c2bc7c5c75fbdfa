package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremarket/caremarket/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const rxCols = `id, doctor_id, patient_id, status, notes, expires_at,
	dispensed_by, dispensed_at, created_at, updated_at`
const rxItemCols = `id, prescription_id, product_id, medication, dosage,
	duration_days, instructions`

func (r *repoPG) scanRx(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DoctorID, &p.PatientID, &p.Status, &p.Notes,
		&p.ExpiresAt, &p.DispensedBy, &p.DispensedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, doctor_id, patient_id, status, notes, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.DoctorID, p.PatientID, p.Status, p.Notes, p.ExpiresAt)
	if err != nil {
		return err
	}
	for _, it := range p.Items {
		it.ID = uuid.New()
		it.PrescriptionID = p.ID
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO prescription_item (id, prescription_id, product_id,
				medication, dosage, duration_days, instructions)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.PrescriptionID, it.ProductID, it.Medication, it.Dosage,
			it.DurationDays, it.Instructions)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := r.scanRx(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxItemCols+` FROM prescription_item WHERE prescription_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.ProductID,
			&it.Medication, &it.Dosage, &it.DurationDays, &it.Instructions); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, &it)
	}
	return p, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `doctor_id`, doctorID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rxCols+` FROM prescription
		WHERE `+col+` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := r.scanRx(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string, dispensedBy *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET status = $2,
			dispensed_by = COALESCE($3, dispensed_by),
			dispensed_at = CASE WHEN $3 IS NULL THEN dispensed_at ELSE NOW() END,
			updated_at = NOW()
		WHERE id = $1`, id, status, dispensedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
