package favorite

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

func (r *repoPG) Add(ctx context.Context, f *Favorite) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO favorite (id, user_id, item_type, item_id)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, item_type, item_id) DO NOTHING`,
		f.ID, f.UserID, f.ItemType, f.ItemID)
	return err
}

func (r *repoPG) Remove(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM favorite
		WHERE user_id = $1 AND item_type = $2 AND item_id = $3`,
		userID, itemType, itemID)
	return err
}

func (r *repoPG) List(ctx context.Context, userID uuid.UUID, itemType string) ([]*Favorite, error) {
	q := `SELECT id, user_id, item_type, item_id, created_at FROM favorite WHERE user_id = $1`
	args := []interface{}{userID}
	if itemType != "" {
		q += ` AND item_type = $2`
		args = append(args, itemType)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ItemType, &f.ItemID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, userID uuid.UUID, itemType string, itemID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM favorite
		WHERE user_id = $1 AND item_type = $2 AND item_id = $3)`,
		userID, itemType, itemID).Scan(&exists)
	return exists, err
}
