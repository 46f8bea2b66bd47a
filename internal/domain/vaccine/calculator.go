package vaccine

import (
	"sort"
	"time"
)

// PlannedDose is one calculator output row: a vaccine code with its
// resolved due date.
type PlannedDose struct {
	VaccineCode   string    `json:"vaccine_code"`
	Name          string    `json:"name"`
	ScheduledDate time.Time `json:"scheduled_date"`
	IsMandatory   bool      `json:"is_mandatory"`
}

// addCalendarMonths advances t by n calendar months, clamping to the
// last day of the target month when the source day does not exist there
// (Jan 31 + 1 month is Feb 29 in a leap year, not Mar 2).
func addCalendarMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// resolveDate applies one timing rule to a birth date. The false return
// means the rule is not recognized and the vaccine yields no entry.
func resolveDate(birth time.Time, rule TimingRule) (time.Time, bool) {
	switch rule.Type {
	case TimingBirth:
		return birth.AddDate(0, 0, rule.OffsetDays), true
	case TimingDay:
		return birth.AddDate(0, 0, rule.Value+rule.OffsetDays), true
	case TimingWeek:
		return birth.AddDate(0, 0, rule.Value*7+rule.OffsetDays), true
	case TimingMonth:
		return addCalendarMonths(birth, rule.Value).AddDate(0, 0, rule.OffsetDays), true
	case TimingCustom:
		return resolveCustom(birth, rule.CustomKey)
	default:
		return time.Time{}, false
	}
}

func resolveCustom(birth time.Time, key string) (time.Time, bool) {
	switch key {
	case CustomAnnualFlu:
		// First October on or after the 6-month birthday.
		sixMonths := addCalendarMonths(birth, 6)
		if sixMonths.Month() == time.October {
			return sixMonths, true
		}
		year := sixMonths.Year()
		if sixMonths.Month() > time.October {
			year++
		}
		return time.Date(year, time.October, 1, 0, 0, 0, 0, sixMonths.Location()), true
	default:
		return time.Time{}, false
	}
}

// Calculate resolves due dates for every applicable definition. Inactive
// definitions are skipped, optional ones too unless includePrivate is
// set, and unrecognized rules drop the single vaccine rather than
// failing the batch. Output is sorted by date; input order breaks ties.
func Calculate(birth time.Time, defs []*Definition, includePrivate bool) []PlannedDose {
	var doses []PlannedDose
	for _, def := range defs {
		if !def.IsActive {
			continue
		}
		if !def.IsMandatory && !includePrivate {
			continue
		}
		date, ok := resolveDate(birth, def.Timing)
		if !ok {
			continue
		}
		doses = append(doses, PlannedDose{
			VaccineCode:   def.Code,
			Name:          def.Name,
			ScheduledDate: date,
			IsMandatory:   def.IsMandatory,
		})
	}
	sort.SliceStable(doses, func(i, j int) bool {
		return doses[i].ScheduledDate.Before(doses[j].ScheduledDate)
	})
	return doses
}

// IsVaccineDue reports whether the child is inside the definition's age
// window at the given time. Monotonic: once due, it stays due until
// max_age_days passes (or forever when no maximum is set).
func IsVaccineDue(birth time.Time, def *Definition, at time.Time) bool {
	ageDays := int(truncateDay(at).Sub(truncateDay(birth)).Hours() / 24)
	if ageDays < def.MinAgeDays {
		return false
	}
	if def.MaxAgeDays != nil && ageDays > *def.MaxAgeDays {
		return false
	}
	return true
}
