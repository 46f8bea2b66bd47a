package vaccine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kidsgourmet/api/pkg/apperr"
)

// Statistics for a vaccine are suppressed below this many reports so an
// individual report cannot be singled out. The threshold is fixed.
const minReportsForStats = 10

// The two persistence paths carry different severity sets: the inline
// column admits "none", the report table does not. This mirrors the
// upstream data model and is kept separate on purpose.
var inlineSeverities = map[string]bool{"none": true, "mild": true, "moderate": true, "severe": true}
var reportSeverities = map[string]bool{"mild": true, "moderate": true, "severe": true}

// SideEffectManager writes the inline side-effect column on a record.
type SideEffectManager struct {
	records RecordRepository
}

func NewSideEffectManager(records RecordRepository) *SideEffectManager {
	return &SideEffectManager{records: records}
}

type SideEffectInput struct {
	Severity    string          `json:"severity"`
	SideEffects json.RawMessage `json:"side_effects"`
}

func (m *SideEffectManager) Report(ctx context.Context, userID, recordID uuid.UUID, in SideEffectInput) (*Record, error) {
	if !inlineSeverities[in.Severity] {
		return nil, apperr.Validation("invalid_severity", "severity must be one of none, mild, moderate, severe")
	}
	rec, err := m.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("record_not_found", "vaccine record not found")
		}
		return nil, apperr.Internal(err)
	}
	if rec.UserID != userID {
		return nil, apperr.NotFound("record_not_found", "vaccine record not found")
	}
	rec.SideEffects = in.SideEffects
	rec.SideEffectSeverity = &in.Severity
	if err := m.records.Update(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return rec, nil
}

// SideEffectTracker appends detailed reports to their own table and
// aggregates anonymized statistics over them.
type SideEffectTracker struct {
	records RecordRepository
	reports ReportRepository
}

func NewSideEffectTracker(records RecordRepository, reports ReportRepository) *SideEffectTracker {
	return &SideEffectTracker{records: records, reports: reports}
}

// Report appends a detailed report. The record must already be done:
// side effects are only attributable to an administered dose.
func (t *SideEffectTracker) Report(ctx context.Context, userID, recordID uuid.UUID, in SideEffectInput) (*SideEffectReport, error) {
	if !reportSeverities[in.Severity] {
		return nil, apperr.Validation("invalid_severity", "severity must be one of mild, moderate, severe")
	}
	rec, err := t.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("record_not_found", "vaccine record not found")
		}
		return nil, apperr.Internal(err)
	}
	if rec.UserID != userID {
		return nil, apperr.NotFound("record_not_found", "vaccine record not found")
	}
	if rec.DisplayStatus(time.Now()) != StatusDone {
		return nil, apperr.Validation("record_not_done", "side effects can only be reported for administered vaccines")
	}
	rep := &SideEffectReport{
		RecordID:    recordID,
		Severity:    in.Severity,
		SideEffects: in.SideEffects,
		ReportedAt:  time.Now(),
	}
	if err := t.reports.Create(ctx, rep); err != nil {
		return nil, apperr.Internal(err)
	}
	return rep, nil
}

// ListReports returns the detailed reports filed against one owned record,
// oldest first.
func (t *SideEffectTracker) ListReports(ctx context.Context, userID, recordID uuid.UUID) ([]*SideEffectReport, error) {
	rec, err := t.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("record_not_found", "vaccine record not found")
		}
		return nil, apperr.Internal(err)
	}
	if rec.UserID != userID {
		return nil, apperr.NotFound("record_not_found", "vaccine record not found")
	}
	reports, err := t.reports.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return reports, nil
}

// Statistics is the aggregate payload. Below the report floor only the
// count and a refusal message are populated.
type Statistics struct {
	VaccineCode       string             `json:"vaccine_code"`
	ReportCount       int                `json:"report_count"`
	Message           string             `json:"message,omitempty"`
	SideEffectRate    *float64           `json:"side_effect_rate,omitempty"`
	SeverityBreakdown map[string]float64 `json:"severity_breakdown,omitempty"`
}

// GetStatistics aggregates severity rates for one vaccine code, but only
// once at least ten reports exist.
func (t *SideEffectTracker) GetStatistics(ctx context.Context, vaccineCode string) (*Statistics, error) {
	reports, err := t.reports.ListByVaccineCode(ctx, vaccineCode)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	stats := &Statistics{VaccineCode: vaccineCode, ReportCount: len(reports)}
	if len(reports) < minReportsForStats {
		stats.Message = fmt.Sprintf("statistics are available once at least %d reports exist", minReportsForStats)
		return stats, nil
	}

	counts := map[string]int{}
	for _, rep := range reports {
		counts[rep.Severity]++
	}
	breakdown := make(map[string]float64, len(counts))
	for sev, n := range counts {
		breakdown[sev] = round1(float64(n) / float64(len(reports)) * 100)
	}

	administered, err := t.records.CountDoneByCode(ctx, vaccineCode)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var rate float64
	if administered > 0 {
		rate = round1(float64(len(reports)) / float64(administered) * 100)
	}
	stats.SideEffectRate = &rate
	stats.SeverityBreakdown = breakdown
	return stats, nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
