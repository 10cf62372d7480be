package medevent

import (
	"context"
	"time"

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

const eventCols = `id, student_id, kind, description, severity, occurred_at,
	recorded_by, created_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(&ev.ID, &ev.StudentID, &ev.Kind, &ev.Description,
		&ev.Severity, &ev.OccurredAt, &ev.RecordedBy, &ev.CreatedAt)
	return &ev, err
}

func (r *repoPG) Create(ctx context.Context, ev *Event) error {
	q := r.conn(ctx)
	ev.ID = uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO medical_events (id, student_id, kind, description, severity, occurred_at, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		ev.ID, ev.StudentID, ev.Kind, ev.Description, ev.Severity, ev.OccurredAt, ev.RecordedBy)
	if err != nil {
		return err
	}
	for _, line := range ev.Lines {
		line.ID = uuid.New()
		line.EventID = ev.ID
		_, err := q.Exec(ctx, `
			INSERT INTO consumption_lines (id, event_id, item_id, quantity)
			VALUES ($1,$2,$3,$4)`,
			line.ID, line.EventID, line.ItemID, line.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	ev, err := scanEvent(r.conn(ctx).QueryRow(ctx,
		`SELECT `+eventCols+` FROM medical_events WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *repoPG) loadLines(ctx context.Context, ev *Event) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, event_id, item_id, quantity
		FROM consumption_lines WHERE event_id = $1`, ev.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line ConsumptionLine
		if err := rows.Scan(&line.ID, &line.EventID, &line.ItemID, &line.Quantity); err != nil {
			return err
		}
		ev.Lines = append(ev.Lines, &line)
	}
	return rows.Err()
}

func (r *repoPG) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Event, int, error) {
	return r.list(ctx,
		`SELECT count(*) FROM medical_events WHERE student_id = $1`,
		`SELECT `+eventCols+` FROM medical_events
		WHERE student_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`,
		[]interface{}{studentID}, limit, offset)
}

func (r *repoPG) ListByRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Event, int, error) {
	return r.list(ctx,
		`SELECT count(*) FROM medical_events WHERE occurred_at BETWEEN $1 AND $2`,
		`SELECT `+eventCols+` FROM medical_events
		WHERE occurred_at BETWEEN $1 AND $2
		ORDER BY occurred_at DESC
		LIMIT $3 OFFSET $4`,
		[]interface{}{from, to}, limit, offset)
}

func (r *repoPG) list(ctx context.Context, countSQL, listSQL string, args []interface{}, limit, offset int) ([]*Event, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, listSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, ev := range out {
		if err := r.loadLines(ctx, ev); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}
