package vaccine

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidsgourmet/api/internal/platform/db"
)

type masterRepoPG struct{ pool *pgxpool.Pool }

func NewMasterRepoPG(pool *pgxpool.Pool) MasterRepository {
	return &masterRepoPG{pool: pool}
}

func (r *masterRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const masterCols = `id, code, name, description, timing_type, timing_value, timing_offset_days,
	custom_rule, min_age_days, max_age_days, is_mandatory, depends_on, schedule_version,
	is_active, created_at`

func scanDefinition(row pgx.Row) (*Definition, error) {
	var d Definition
	err := row.Scan(&d.ID, &d.Code, &d.Name, &d.Description,
		&d.Timing.Type, &d.Timing.Value, &d.Timing.OffsetDays, &d.Timing.CustomKey,
		&d.MinAgeDays, &d.MaxAgeDays, &d.IsMandatory, &d.DependsOn,
		&d.ScheduleVersion, &d.IsActive, &d.CreatedAt)
	return &d, err
}

func (r *masterRepoPG) Upsert(ctx context.Context, d *Definition) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO kg_vaccine_master
			(id, code, name, description, timing_type, timing_value, timing_offset_days,
			 custom_rule, min_age_days, max_age_days, is_mandatory, depends_on,
			 schedule_version, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (code, schedule_version) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			timing_type = EXCLUDED.timing_type,
			timing_value = EXCLUDED.timing_value,
			timing_offset_days = EXCLUDED.timing_offset_days,
			custom_rule = EXCLUDED.custom_rule,
			min_age_days = EXCLUDED.min_age_days,
			max_age_days = EXCLUDED.max_age_days,
			is_mandatory = EXCLUDED.is_mandatory,
			depends_on = EXCLUDED.depends_on,
			is_active = EXCLUDED.is_active`,
		d.ID, d.Code, d.Name, d.Description,
		d.Timing.Type, d.Timing.Value, d.Timing.OffsetDays, d.Timing.CustomKey,
		d.MinAgeDays, d.MaxAgeDays, d.IsMandatory, d.DependsOn,
		d.ScheduleVersion, d.IsActive)
	return err
}

func (r *masterRepoPG) ListByVersion(ctx context.Context, version string, activeOnly bool) ([]*Definition, error) {
	q := `SELECT ` + masterCols + ` FROM kg_vaccine_master WHERE schedule_version = $1`
	if activeOnly {
		q += ` AND is_active`
	}
	q += ` ORDER BY min_age_days ASC, code ASC`
	rows, err := r.conn(ctx).Query(ctx, q, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var defs []*Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (r *masterRepoPG) GetByCode(ctx context.Context, code, version string) (*Definition, error) {
	return scanDefinition(r.conn(ctx).QueryRow(ctx,
		`SELECT `+masterCols+` FROM kg_vaccine_master WHERE code = $1 AND schedule_version = $2`,
		code, version))
}
