package schedule

import (
	"context"

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

const windowCols = `id, doctor_id, weekday, start_time, end_time, slot_minutes, enabled`

func (r *repoPG) ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, windows []*Window) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx,
		`DELETE FROM weekly_schedule WHERE doctor_id = $1`, doctorID); err != nil {
		return err
	}
	for _, w := range windows {
		w.ID = uuid.New()
		w.DoctorID = doctorID
		if _, err := conn.Exec(ctx, `
			INSERT INTO weekly_schedule (id, doctor_id, weekday, start_time,
				end_time, slot_minutes, enabled)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			w.ID, w.DoctorID, w.Weekday, w.Start, w.End, w.SlotMinutes, w.Enabled); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+windowCols+` FROM weekly_schedule
		WHERE doctor_id = $1 ORDER BY weekday, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []*Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.Weekday, &w.Start, &w.End,
			&w.SlotMinutes, &w.Enabled); err != nil {
			return nil, err
		}
		windows = append(windows, &w)
	}
	return windows, rows.Err()
}
