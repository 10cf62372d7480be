package drugrequest

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

const requestCols = `id, student_id, requested_by, medication, dosage,
	schedule, note, status, rejection_reason, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.StudentID, &req.RequestedBy, &req.Medication,
		&req.Dosage, &req.Schedule, &req.Note, &req.Status,
		&req.RejectionReason, &req.CreatedAt, &req.UpdatedAt)
	return &req, err
}

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug_requests (id, student_id, requested_by, medication, dosage, schedule, note, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		req.ID, req.StudentID, req.RequestedBy, req.Medication, req.Dosage,
		req.Schedule, req.Note, req.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM drug_requests WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, req *Request) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug_requests
		SET status = $2, rejection_reason = $3, updated_at = now()
		WHERE id = $1`,
		req.ID, req.Status, req.RejectionReason)
	return err
}

func (r *repoPG) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Request, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+requestCols+` FROM drug_requests
		WHERE student_id = $1
		ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Request, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx,
		`SELECT count(*) FROM drug_requests WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+requestCols+` FROM drug_requests
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}
