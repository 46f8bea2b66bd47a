package vaccine

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timing rule types. A definition's due date is derived from the child's
// birth date by the rule type and its parameters.
const (
	TimingBirth  = "birth"
	TimingDay    = "day"
	TimingWeek   = "week"
	TimingMonth  = "month"
	TimingCustom = "custom"
)

// Custom rule keys dispatched by the calculator.
const CustomAnnualFlu = "annual_flu"

// Persisted record statuses. The display status is recomputed at read
// time; only done and skipped are authoritative as stored.
const (
	StatusScheduled = "scheduled"
	StatusUpcoming  = "upcoming"
	StatusOverdue   = "overdue"
	StatusDone      = "done"
	StatusSkipped   = "skipped"
	StatusDelayed   = "delayed"
)

// ValidStatuses are the values update_status accepts.
var ValidStatuses = map[string]bool{
	StatusUpcoming: true,
	StatusDone:     true,
	StatusSkipped:  true,
	StatusDelayed:  true,
}

// TimingRule is the tagged variant controlling date resolution.
type TimingRule struct {
	Type       string `db:"timing_type" json:"type"`
	Value      int    `db:"timing_value" json:"value"`
	OffsetDays int    `db:"timing_offset_days" json:"offset_days"`
	CustomKey  string `db:"custom_rule" json:"custom_key,omitempty"`
}

// Definition is one entry of the versioned vaccine catalog.
type Definition struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	Description     string     `db:"description" json:"description"`
	Timing          TimingRule `json:"timing"`
	MinAgeDays      int        `db:"min_age_days" json:"min_age_days"`
	MaxAgeDays      *int       `db:"max_age_days" json:"max_age_days,omitempty"`
	IsMandatory     bool       `db:"is_mandatory" json:"is_mandatory"`
	DependsOn       *string    `db:"depends_on" json:"depends_on,omitempty"`
	ScheduleVersion string     `db:"schedule_version" json:"schedule_version"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Record is one planned or administered dose for a child.
type Record struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	UserID             uuid.UUID       `db:"user_id" json:"user_id"`
	ChildID            uuid.UUID       `db:"child_id" json:"child_id"`
	VaccineCode        string          `db:"vaccine_code" json:"vaccine_code"`
	Status             string          `db:"status" json:"status"`
	ScheduledDate      time.Time       `db:"scheduled_date" json:"scheduled_date"`
	ActualDate         *time.Time      `db:"actual_date" json:"actual_date,omitempty"`
	Notes              string          `db:"notes" json:"notes"`
	SideEffects        json.RawMessage `db:"side_effects" json:"side_effects,omitempty"`
	SideEffectSeverity *string         `db:"side_effect_severity" json:"side_effect_severity,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// BaseCode strips the dose-index suffix from a multi-dose private code,
// so "hpv-gardasil9-2" maps back to "hpv-gardasil9". Catalog codes
// without a numeric suffix are returned unchanged.
func BaseCode(code string) string {
	i := strings.LastIndex(code, "-")
	if i <= 0 {
		return code
	}
	suffix := code[i+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return code
		}
	}
	return code[:i]
}

// DisplayStatus derives the effective status at read time. Stored done
// and skipped are authoritative; anything else is recomputed from the
// scheduled date.
func (r *Record) DisplayStatus(today time.Time) string {
	if r.ActualDate != nil || r.Status == StatusDone {
		return StatusDone
	}
	if r.Status == StatusSkipped {
		return StatusSkipped
	}
	today = truncateDay(today)
	sched := truncateDay(r.ScheduledDate)
	switch {
	case sched.Before(today):
		return StatusOverdue
	case !sched.After(today.AddDate(0, 0, 7)):
		return StatusUpcoming
	default:
		return StatusScheduled
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SideEffectReport is the append-only detailed variant, kept in its own
// table alongside the inline column on Record.
type SideEffectReport struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	RecordID    uuid.UUID       `db:"record_id" json:"record_id"`
	Severity    string          `db:"severity" json:"severity"`
	SideEffects json.RawMessage `db:"side_effects" json:"side_effects"`
	ReportedAt  time.Time       `db:"reported_at" json:"reported_at"`
}
