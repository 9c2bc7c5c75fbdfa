package cart

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

const lineCols = `user_id, product_id, sku, name, price, discounted_price,
	image_url, stock, qty, added_at`

func (r *repoPG) scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(&l.UserID, &l.ProductID, &l.SKU, &l.Name, &l.Price,
		&l.DiscountedPrice, &l.ImageURL, &l.Stock, &l.Qty, &l.AddedAt)
	return &l, err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Line, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+lineCols+` FROM cart_line
		WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*Line
	for rows.Next() {
		l, err := r.scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, userID, productID uuid.UUID) (*Line, error) {
	l, err := r.scanLine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+lineCols+` FROM cart_line WHERE user_id = $1 AND product_id = $2`,
		userID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	return l, err
}

func (r *repoPG) Upsert(ctx context.Context, l *Line) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cart_line (user_id, product_id, sku, name, price,
			discounted_price, image_url, stock, qty, added_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (user_id, product_id) DO UPDATE SET qty = EXCLUDED.qty`,
		l.UserID, l.ProductID, l.SKU, l.Name, l.Price,
		l.DiscountedPrice, l.ImageURL, l.Stock, l.Qty, l.AddedAt)
	return err
}

func (r *repoPG) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM cart_line WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

func (r *repoPG) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM cart_line WHERE user_id = $1`, userID)
	return err
}
