package catalog

import (
	"context"
	"fmt"

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

type productRepoPG struct{ pool *pgxpool.Pool }

func NewProductRepoPG(pool *pgxpool.Pool) ProductRepository { return &productRepoPG{pool: pool} }

func (r *productRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const productCols = `id, sku, owner_id, name, description, category, price,
	discounted_price, image_url, stock, active, created_at, updated_at`

func (r *productRepoPG) scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.OwnerID, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.DiscountedPrice, &p.ImageURL, &p.Stock, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *productRepoPG) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO product (id, sku, owner_id, name, description, category, price,
			discounted_price, image_url, stock, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.SKU, p.OwnerID, p.Name, p.Description, p.Category, p.Price,
		p.DiscountedPrice, p.ImageURL, p.Stock, p.Active)
	return err
}

func (r *productRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return r.scanProduct(r.conn(ctx).QueryRow(ctx, `SELECT `+productCols+` FROM product WHERE id = $1`, id))
}

func (r *productRepoPG) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return r.scanProduct(r.conn(ctx).QueryRow(ctx, `SELECT `+productCols+` FROM product WHERE sku = $1`, sku))
}

func (r *productRepoPG) Update(ctx context.Context, p *Product) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE product SET name=$2, description=$3, category=$4, price=$5,
			discounted_price=$6, image_url=$7, stock=$8, active=$9, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Category, p.Price,
		p.DiscountedPrice, p.ImageURL, p.Stock, p.Active)
	return err
}

func (r *productRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM product WHERE id = $1`, id)
	return err
}

func (r *productRepoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Product, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM product WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+productCols+` FROM product
		WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *productRepoPG) Search(ctx context.Context, query, category string, limit, offset int) ([]*Product, int, error) {
	where := `active = TRUE`
	args := []interface{}{}
	n := 0
	if query != "" {
		n++
		where += fmt.Sprintf(` AND name ILIKE $%d`, n)
		args = append(args, "%"+query+"%")
	}
	if category != "" {
		n++
		where += fmt.Sprintf(` AND category = $%d`, n)
		args = append(args, category)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM product WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT `+productCols+` FROM product WHERE `+where+` ORDER BY name LIMIT $%d OFFSET $%d`, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *productRepoPG) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE product SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *productRepoPG) collect(rows pgx.Rows, total int) ([]*Product, int, error) {
	var items []*Product
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
