package campaign

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

// =========== Campaign Repository ===========

type campaignRepoPG struct{ pool *pgxpool.Pool }

func NewCampaignRepoPG(pool *pgxpool.Pool) Repository {
	return &campaignRepoPG{pool: pool}
}

func (r *campaignRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const campaignCols = `id, kind, name, description, vaccine_name, dose_quantity,
	status, starts_at, ends_at, created_at, updated_at`

func (r *campaignRepoPG) scanCampaign(row pgx.Row) (*Campaign, error) {
	var cp Campaign
	err := row.Scan(&cp.ID, &cp.Kind, &cp.Name, &cp.Description, &cp.VaccineName,
		&cp.DoseQuantity, &cp.Status, &cp.StartsAt, &cp.EndsAt,
		&cp.CreatedAt, &cp.UpdatedAt)
	return &cp, err
}

func (r *campaignRepoPG) Create(ctx context.Context, cp *Campaign) error {
	cp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO campaigns (id, kind, name, description, vaccine_name,
			dose_quantity, status, starts_at, ends_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		cp.ID, cp.Kind, cp.Name, cp.Description, cp.VaccineName,
		cp.DoseQuantity, cp.Status, cp.StartsAt, cp.EndsAt)
	return err
}

func (r *campaignRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	return r.scanCampaign(r.conn(ctx).QueryRow(ctx,
		`SELECT `+campaignCols+` FROM campaigns WHERE id = $1`, id))
}

func (r *campaignRepoPG) Update(ctx context.Context, cp *Campaign) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE campaigns SET name=$2, description=$3, vaccine_name=$4,
			dose_quantity=$5, status=$6, starts_at=$7, ends_at=$8, updated_at=NOW()
		WHERE id = $1`,
		cp.ID, cp.Name, cp.Description, cp.VaccineName,
		cp.DoseQuantity, cp.Status, cp.StartsAt, cp.EndsAt)
	return err
}

func (r *campaignRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

func (r *campaignRepoPG) List(ctx context.Context, limit, offset int) ([]*Campaign, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+campaignCols+` FROM campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Campaign
	for rows.Next() {
		cp, err := r.scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cp)
	}
	return items, total, nil
}

func (r *campaignRepoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Campaign, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM campaigns WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+campaignCols+` FROM campaigns WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Campaign
	for rows.Next() {
		cp, err := r.scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cp)
	}
	return items, total, nil
}

// =========== SpecialistExam Repository ===========

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) ExamRepository {
	return &examRepoPG{pool: pool}
}

func (r *examRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const examCols = `id, campaign_id, name, description, created_at`

func (r *examRepoPG) scanExam(row pgx.Row) (*SpecialistExam, error) {
	var ex SpecialistExam
	err := row.Scan(&ex.ID, &ex.CampaignID, &ex.Name, &ex.Description, &ex.CreatedAt)
	return &ex, err
}

func (r *examRepoPG) Create(ctx context.Context, ex *SpecialistExam) error {
	ex.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO specialist_exams (id, campaign_id, name, description)
		VALUES ($1,$2,$3,$4)`,
		ex.ID, ex.CampaignID, ex.Name, ex.Description)
	return err
}

func (r *examRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SpecialistExam, error) {
	return r.scanExam(r.conn(ctx).QueryRow(ctx,
		`SELECT `+examCols+` FROM specialist_exams WHERE id = $1`, id))
}

func (r *examRepoPG) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*SpecialistExam, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+examCols+` FROM specialist_exams WHERE campaign_id = $1 ORDER BY created_at`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SpecialistExam
	for rows.Next() {
		ex, err := r.scanExam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ex)
	}
	return items, nil
}

func (r *examRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM specialist_exams WHERE id = $1`, id)
	return err
}
