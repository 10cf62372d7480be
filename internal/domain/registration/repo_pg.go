package registration

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

const registrationCols = `id, campaign_id, student_id, kind, consent_status,
	status, reason, created_at, updated_at`

func scanRegistration(row pgx.Row) (*Registration, error) {
	var reg Registration
	err := row.Scan(&reg.ID, &reg.CampaignID, &reg.StudentID, &reg.Kind,
		&reg.ConsentStatus, &reg.Status, &reg.Reason, &reg.CreatedAt, &reg.UpdatedAt)
	return &reg, err
}

func (r *repoPG) Create(ctx context.Context, reg *Registration) error {
	reg.ID = uuid.New()
	q := r.conn(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO registrations (id, campaign_id, student_id, kind, consent_status, status, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		reg.ID, reg.CampaignID, reg.StudentID, reg.Kind, reg.ConsentStatus, reg.Status, reg.Reason)
	if err != nil {
		return err
	}
	for _, d := range reg.Doses {
		d.ID = uuid.New()
		d.RegistrationID = reg.ID
		_, err := q.Exec(ctx, `
			INSERT INTO doses (id, registration_id, dose_index, administered, administered_at)
			VALUES ($1,$2,$3,$4,$5)`,
			d.ID, d.RegistrationID, d.DoseIndex, d.Administered, d.AdministeredAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	reg, err := scanRegistration(r.conn(ctx).QueryRow(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadSubUnits(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repoPG) GetByCampaignAndStudent(ctx context.Context, campaignID, studentID uuid.UUID) (*Registration, error) {
	reg, err := scanRegistration(r.conn(ctx).QueryRow(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE campaign_id = $1 AND student_id = $2`,
		campaignID, studentID))
	if err != nil {
		return nil, err
	}
	if err := r.loadSubUnits(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repoPG) loadSubUnits(ctx context.Context, reg *Registration) error {
	q := r.conn(ctx)
	rows, err := q.Query(ctx, `
		SELECT id, registration_id, dose_index, administered, administered_at
		FROM doses WHERE registration_id = $1 ORDER BY dose_index`, reg.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d Dose
		if err := rows.Scan(&d.ID, &d.RegistrationID, &d.DoseIndex, &d.Administered, &d.AdministeredAt); err != nil {
			return err
		}
		reg.Doses = append(reg.Doses, &d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT id, registration_id, specialist_exam_id, attach_status, result, diagnosis
		FROM exam_attachments WHERE registration_id = $1`, reg.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ex ExamAttachment
		if err := rows.Scan(&ex.ID, &ex.RegistrationID, &ex.SpecialistExamID, &ex.AttachStatus, &ex.Result, &ex.Diagnosis); err != nil {
			return err
		}
		reg.Exams = append(reg.Exams, &ex)
	}
	return rows.Err()
}

func (r *repoPG) Update(ctx context.Context, reg *Registration) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE registrations
		SET consent_status = $2, status = $3, reason = $4, updated_at = now()
		WHERE id = $1`,
		reg.ID, reg.ConsentStatus, reg.Status, reg.Reason)
	return err
}

func (r *repoPG) SaveDose(ctx context.Context, d *Dose) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doses SET administered = $2, administered_at = $3 WHERE id = $1`,
		d.ID, d.Administered, d.AdministeredAt)
	return err
}

func (r *repoPG) SaveExam(ctx context.Context, ex *ExamAttachment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE exam_attachments SET attach_status = $2, result = $3, diagnosis = $4 WHERE id = $1`,
		ex.ID, ex.AttachStatus, ex.Result, ex.Diagnosis)
	return err
}

func (r *repoPG) ReplaceExams(ctx context.Context, registrationID uuid.UUID, exams []*ExamAttachment) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM exam_attachments WHERE registration_id = $1`, registrationID); err != nil {
		return err
	}
	for _, ex := range exams {
		ex.ID = uuid.New()
		ex.RegistrationID = registrationID
		_, err := q.Exec(ctx, `
			INSERT INTO exam_attachments (id, registration_id, specialist_exam_id, attach_status, result, diagnosis)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			ex.ID, ex.RegistrationID, ex.SpecialistExamID, ex.AttachStatus, ex.Result, ex.Diagnosis)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*Registration, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE campaign_id = $1`, campaignID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+registrationCols+` FROM registrations
		WHERE campaign_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, reg := range out {
		if err := r.loadSubUnits(ctx, reg); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *repoPG) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*Registration, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+registrationCols+` FROM registrations
		WHERE student_id = $1
		ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, reg := range out {
		if err := r.loadSubUnits(ctx, reg); err != nil {
			return nil, err
		}
	}
	return out, nil
}
