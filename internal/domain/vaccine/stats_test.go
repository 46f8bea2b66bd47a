package vaccine

import (
	"testing"
	"time"
)

func rec(code string, scheduled time.Time, status string, actual *time.Time) *Record {
	return &Record{
		VaccineCode:   code,
		Status:        status,
		ScheduledDate: scheduled,
		ActualDate:    actual,
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, date(2024, 1, 1), date(2024, 6, 1))
	if stats.Total != 0 || stats.CompletionRate != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestComputeStatsCompletionRate(t *testing.T) {
	birth := date(2024, 1, 1)
	now := date(2024, 7, 1)
	a1 := date(2024, 1, 2)
	a2 := date(2024, 2, 3)
	records := []*Record{
		rec("hepb-1", date(2024, 1, 1), StatusDone, &a1),
		rec("hepb-2", date(2024, 2, 1), StatusDone, &a2),
		rec("bcg", date(2024, 3, 1), StatusUpcoming, nil),
	}
	stats := ComputeStats(records, birth, now)
	if stats.Total != 3 {
		t.Errorf("total = %d", stats.Total)
	}
	if stats.CompletionRate != 66.7 {
		t.Errorf("completion rate = %.1f, want 66.7", stats.CompletionRate)
	}
	if stats.ByStatus[StatusDone] != 2 || stats.ByStatus[StatusOverdue] != 1 {
		t.Errorf("by_status = %v", stats.ByStatus)
	}
	if stats.MonthlyBuckets["2024-01"] != 1 || stats.MonthlyBuckets["2024-02"] != 1 || stats.MonthlyBuckets["2024-03"] != 1 {
		t.Errorf("monthly buckets = %v", stats.MonthlyBuckets)
	}
}

func TestComputeStatsNextDue(t *testing.T) {
	birth := date(2024, 1, 1)
	now := date(2024, 2, 15)
	records := []*Record{
		rec("past", date(2024, 2, 1), StatusUpcoming, nil),   // overdue, never next
		rec("near", date(2024, 2, 18), StatusUpcoming, nil),  // upcoming
		rec("later", date(2024, 4, 1), StatusUpcoming, nil),  // scheduled
		rec("skip", date(2024, 2, 16), StatusSkipped, nil),   // skipped never next
	}
	stats := ComputeStats(records, birth, now)
	if stats.NextDue == nil {
		t.Fatal("expected next due")
	}
	if stats.NextDue.VaccineCode != "near" {
		t.Errorf("next due = %s, want near", stats.NextDue.VaccineCode)
	}
}

func TestComputeStatsRecentCompletions(t *testing.T) {
	now := time.Now()
	recent := now.AddDate(0, 0, -10)
	old := now.AddDate(0, 0, -45)
	records := []*Record{
		rec("a", recent, StatusDone, &recent),
		rec("b", old, StatusDone, &old),
	}
	stats := ComputeStats(records, now.AddDate(-1, 0, 0), now)
	if stats.RecentCompletions != 1 {
		t.Errorf("recent completions = %d, want 1", stats.RecentCompletions)
	}
}

func TestComputeStatsMilestones(t *testing.T) {
	birth := date(2024, 1, 1)
	now := date(2024, 8, 1) // child is 7 months old
	a := date(2024, 1, 2)
	records := []*Record{
		rec("hepb-1", date(2024, 1, 1), StatusDone, &a),   // 0 months -> 2m bracket
		rec("hepb-2", date(2024, 2, 1), StatusUpcoming, nil), // 1 month -> 2m bracket
		rec("mmr", date(2025, 1, 1), StatusUpcoming, nil),    // 12 months -> 12m bracket
	}
	stats := ComputeStats(records, birth, now)
	if len(stats.Milestones) != len(milestoneMonths) {
		t.Fatalf("got %d milestones", len(stats.Milestones))
	}
	twoMonths := stats.Milestones[0]
	if twoMonths.AgeMonths != 2 || twoMonths.Total != 2 || twoMonths.Done != 1 || !twoMonths.Reached {
		t.Errorf("2-month bracket = %+v", twoMonths)
	}
	for _, m := range stats.Milestones {
		if m.AgeMonths == 12 {
			if m.Total != 1 || m.Reached {
				t.Errorf("12-month bracket = %+v", m)
			}
		}
	}
}
