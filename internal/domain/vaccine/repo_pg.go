package vaccine

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidsgourmet/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, user_id, child_id, vaccine_code, status, scheduled_date, actual_date,
	notes, side_effects, side_effect_severity, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ChildID, &rec.VaccineCode, &rec.Status,
		&rec.ScheduledDate, &rec.ActualDate, &rec.Notes, &rec.SideEffects,
		&rec.SideEffectSeverity, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *recordRepoPG) BulkCreate(ctx context.Context, records []*Record) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		rec.ID = uuid.New()
		batch.Queue(`
			INSERT INTO kg_vaccine_records (id, user_id, child_id, vaccine_code, status, scheduled_date, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			rec.ID, rec.UserID, rec.ChildID, rec.VaccineCode, rec.Status, rec.ScheduledDate, rec.Notes)
	}
	var br pgx.BatchResults
	switch c := r.conn(ctx).(type) {
	case pgx.Tx:
		br = c.SendBatch(ctx, batch)
	case *pgxpool.Conn:
		br = c.SendBatch(ctx, batch)
	default:
		br = r.pool.SendBatch(ctx, batch)
	}
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO kg_vaccine_records (id, user_id, child_id, vaccine_code, status, scheduled_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.UserID, rec.ChildID, rec.VaccineCode, rec.Status, rec.ScheduledDate, rec.Notes)
	return err
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM kg_vaccine_records WHERE id = $1`, id))
}

func (r *recordRepoPG) ListByChild(ctx context.Context, childID uuid.UUID) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM kg_vaccine_records WHERE child_id = $1 ORDER BY scheduled_date ASC, created_at ASC`,
		childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *recordRepoPG) CountByChild(ctx context.Context, childID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM kg_vaccine_records WHERE child_id = $1`, childID).Scan(&n)
	return n, err
}

func (r *recordRepoPG) ExistsByChildAndCode(ctx context.Context, childID uuid.UUID, code string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM kg_vaccine_records WHERE child_id = $1 AND vaccine_code = $2)`,
		childID, code).Scan(&exists)
	return exists, err
}

func (r *recordRepoPG) CountDoneByCode(ctx context.Context, code string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM kg_vaccine_records
		WHERE vaccine_code = $1 AND (status = 'done' OR actual_date IS NOT NULL)`,
		code).Scan(&n)
	return n, err
}

func (r *recordRepoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE kg_vaccine_records
		SET status=$2, scheduled_date=$3, actual_date=$4, notes=$5,
		    side_effects=$6, side_effect_severity=$7, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.Status, rec.ScheduledDate, rec.ActualDate, rec.Notes,
		rec.SideEffects, rec.SideEffectSeverity)
	return err
}

func (r *recordRepoPG) DeleteByCodePrefix(ctx context.Context, userID, childID uuid.UUID, prefix string) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM kg_vaccine_records
		WHERE user_id = $1 AND child_id = $2 AND vaccine_code LIKE $3 || '%'`,
		userID, childID, prefix)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// -- Side-effect report repository --

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reportCols = `id, record_id, severity, side_effects, reported_at`

func scanReport(row pgx.Row) (*SideEffectReport, error) {
	var rep SideEffectReport
	err := row.Scan(&rep.ID, &rep.RecordID, &rep.Severity, &rep.SideEffects, &rep.ReportedAt)
	return &rep, err
}

func (r *reportRepoPG) Create(ctx context.Context, rep *SideEffectReport) error {
	rep.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO kg_vaccine_side_effects (id, record_id, severity, side_effects)
		VALUES ($1,$2,$3,$4)`,
		rep.ID, rep.RecordID, rep.Severity, rep.SideEffects)
	return err
}

func (r *reportRepoPG) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*SideEffectReport, error) {
	return r.list(ctx,
		`SELECT `+reportCols+` FROM kg_vaccine_side_effects WHERE record_id = $1 ORDER BY reported_at ASC`,
		recordID)
}

func (r *reportRepoPG) ListByVaccineCode(ctx context.Context, code string) ([]*SideEffectReport, error) {
	return r.list(ctx, `
		SELECT s.id, s.record_id, s.severity, s.side_effects, s.reported_at
		FROM kg_vaccine_side_effects s
		JOIN kg_vaccine_records rec ON rec.id = s.record_id
		WHERE rec.vaccine_code = $1
		ORDER BY s.reported_at ASC`,
		code)
}

func (r *reportRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*SideEffectReport, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []*SideEffectReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
