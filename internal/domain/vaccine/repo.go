package vaccine

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository stores per-child vaccine records.
type RecordRepository interface {
	BulkCreate(ctx context.Context, records []*Record) error
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByChild(ctx context.Context, childID uuid.UUID) ([]*Record, error)
	CountByChild(ctx context.Context, childID uuid.UUID) (int, error)
	ExistsByChildAndCode(ctx context.Context, childID uuid.UUID, code string) (bool, error)
	CountDoneByCode(ctx context.Context, code string) (int, error)
	Update(ctx context.Context, r *Record) error
	DeleteByCodePrefix(ctx context.Context, userID, childID uuid.UUID, prefix string) (int, error)
}

// ReportRepository stores detailed side-effect reports.
type ReportRepository interface {
	Create(ctx context.Context, rep *SideEffectReport) error
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*SideEffectReport, error)
	ListByVaccineCode(ctx context.Context, code string) ([]*SideEffectReport, error)
}
