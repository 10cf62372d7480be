package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolmed/schoolmed/internal/platform/db"
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

const itemCols = `id, name, unit, quantity, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Unit, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

func (r *repoPG) Create(ctx context.Context, it *Item) error {
	it.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_items (id, name, unit, quantity)
		VALUES ($1,$2,$3,$4)`,
		it.ID, it.Name, it.Unit, it.Quantity)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM inventory_items WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, it *Item) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_items
		SET name = $2, unit = $3, quantity = $4, updated_at = now()
		WHERE id = $1`,
		it.ID, it.Name, it.Unit, it.Quantity)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM inventory_items`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+itemCols+` FROM inventory_items
		ORDER BY name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Consume guards the decrement in SQL so concurrent submissions cannot
// drive stock below zero.
func (r *repoPG) Consume(ctx context.Context, itemID uuid.UUID, quantity int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`,
		itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}
		return ErrStockConflict
	}
	return nil
}
