package student

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

const studentCols = `id, code, full_name, date_of_birth, class_name,
	guardian_user_id, created_at, updated_at`

func scanStudent(row pgx.Row) (*Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.Code, &st.FullName, &st.DateOfBirth,
		&st.ClassName, &st.GuardianUserID, &st.CreatedAt, &st.UpdatedAt)
	return &st, err
}

func (r *repoPG) Create(ctx context.Context, st *Student) error {
	st.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO students (id, code, full_name, date_of_birth, class_name, guardian_user_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		st.ID, st.Code, st.FullName, st.DateOfBirth, st.ClassName, st.GuardianUserID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	return scanStudent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+studentCols+` FROM students WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Student, error) {
	return scanStudent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+studentCols+` FROM students WHERE code = $1`, code))
}

func (r *repoPG) Update(ctx context.Context, st *Student) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE students
		SET code = $2, full_name = $3, date_of_birth = $4, class_name = $5,
			guardian_user_id = $6, updated_at = now()
		WHERE id = $1`,
		st.ID, st.Code, st.FullName, st.DateOfBirth, st.ClassName, st.GuardianUserID)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Student, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+studentCols+` FROM students
		ORDER BY class_name, full_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListByGuardian(ctx context.Context, guardianUserID string) ([]*Student, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+studentCols+` FROM students
		WHERE guardian_user_id = $1
		ORDER BY full_name`, guardianUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
