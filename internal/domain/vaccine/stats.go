package vaccine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kidsgourmet/api/pkg/apperr"
)

// milestoneMonths are the age brackets progress is reported against.
var milestoneMonths = []int{2, 4, 6, 12, 18, 24, 48}

// NextDue names the earliest upcoming dose.
type NextDue struct {
	VaccineCode   string    `json:"vaccine_code"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// Milestone is the completion state of one age bracket.
type Milestone struct {
	AgeMonths int  `json:"age_months"`
	Total     int  `json:"total"`
	Done      int  `json:"done"`
	Reached   bool `json:"reached"`
}

// ChildStats is the aggregate view over one child's records. Everything
// is derived per request; nothing is cached or persisted.
type ChildStats struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	MonthlyBuckets    map[string]int `json:"monthly_buckets"`
	CompletionRate    float64        `json:"completion_rate"`
	NextDue           *NextDue       `json:"next_due,omitempty"`
	RecentCompletions int            `json:"recent_completions"`
	Milestones        []Milestone    `json:"milestones"`
}

// ComputeStats aggregates a record set at a point in time. Pure; the
// service wraps it with the fetch.
func ComputeStats(records []*Record, birth, now time.Time) *ChildStats {
	stats := &ChildStats{
		Total:          len(records),
		ByStatus:       map[string]int{},
		MonthlyBuckets: map[string]int{},
	}
	if len(records) == 0 {
		return stats
	}

	done := 0
	childAgeMonths := monthsBetween(birth, now)
	milestoneTotal := make(map[int]int)
	milestoneDone := make(map[int]int)

	for _, rec := range records {
		display := rec.DisplayStatus(now)
		stats.ByStatus[display]++
		stats.MonthlyBuckets[rec.ScheduledDate.Format("2006-01")]++

		if display == StatusDone {
			done++
			if rec.ActualDate != nil && now.Sub(*rec.ActualDate) <= 30*24*time.Hour {
				stats.RecentCompletions++
			}
		}

		if display == StatusUpcoming || display == StatusScheduled {
			sched := truncateDay(rec.ScheduledDate)
			if !sched.Before(truncateDay(now)) {
				if stats.NextDue == nil || sched.Before(stats.NextDue.ScheduledDate) {
					stats.NextDue = &NextDue{VaccineCode: rec.VaccineCode, ScheduledDate: sched}
				}
			}
		}

		dueMonths := monthsBetween(birth, rec.ScheduledDate)
		for _, m := range milestoneMonths {
			if dueMonths <= m {
				milestoneTotal[m]++
				if display == StatusDone {
					milestoneDone[m]++
				}
				break
			}
		}
	}

	stats.CompletionRate = round1(float64(done) / float64(len(records)) * 100)
	for _, m := range milestoneMonths {
		stats.Milestones = append(stats.Milestones, Milestone{
			AgeMonths: m,
			Total:     milestoneTotal[m],
			Done:      milestoneDone[m],
			Reached:   childAgeMonths >= m,
		})
	}
	return stats
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// GetChildStats fetches the child's records and aggregates them.
func (s *Service) GetChildStats(ctx context.Context, userID, childID uuid.UUID) (*ChildStats, error) {
	profile, err := s.child(ctx, userID, childID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByChild(ctx, childID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ComputeStats(records, profile.BirthDate, time.Now()), nil
}
