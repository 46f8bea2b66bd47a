package vaccine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kidsgourmet/api/pkg/apperr"
)

type mockReportRepo struct {
	reports []*SideEffectReport
	records *mockRecordRepo
}

func (m *mockReportRepo) Create(_ context.Context, rep *SideEffectReport) error {
	rep.ID = uuid.New()
	m.reports = append(m.reports, rep)
	return nil
}

func (m *mockReportRepo) ListByRecord(_ context.Context, recordID uuid.UUID) ([]*SideEffectReport, error) {
	var result []*SideEffectReport
	for _, rep := range m.reports {
		if rep.RecordID == recordID {
			result = append(result, rep)
		}
	}
	return result, nil
}

func (m *mockReportRepo) ListByVaccineCode(_ context.Context, code string) ([]*SideEffectReport, error) {
	var result []*SideEffectReport
	for _, rep := range m.reports {
		rec, err := m.records.GetByID(context.Background(), rep.RecordID)
		if err != nil {
			continue
		}
		if rec.VaccineCode == code {
			result = append(result, rep)
		}
	}
	return result, nil
}

func doneRecord(records *mockRecordRepo, userID uuid.UUID, code string) *Record {
	actual := time.Now().AddDate(0, 0, -3)
	rec := &Record{
		UserID:        userID,
		ChildID:       uuid.New(),
		VaccineCode:   code,
		Status:        StatusDone,
		ScheduledDate: actual,
		ActualDate:    &actual,
	}
	records.Create(context.Background(), rec)
	return rec
}

func TestInlineReportSeverity(t *testing.T) {
	records := newMockRecordRepo()
	mgr := NewSideEffectManager(records)
	userID := uuid.New()
	rec := doneRecord(records, userID, "hepb-1")

	blob := json.RawMessage(`{"fever":true,"hours":12}`)
	updated, err := mgr.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: "mild", SideEffects: blob})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if updated.SideEffectSeverity == nil || *updated.SideEffectSeverity != "mild" {
		t.Errorf("severity = %v", updated.SideEffectSeverity)
	}

	// the inline path accepts "none", the detailed path must not
	if _, err := mgr.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: "none"}); err != nil {
		t.Errorf("inline severity none rejected: %v", err)
	}
	if _, err := mgr.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: "catastrophic"}); err == nil {
		t.Error("invalid severity accepted")
	}
}

func TestDetailedReportRequiresDone(t *testing.T) {
	records := newMockRecordRepo()
	reports := &mockReportRepo{records: records}
	tracker := NewSideEffectTracker(records, reports)
	userID := uuid.New()

	pending := &Record{
		UserID:        userID,
		ChildID:       uuid.New(),
		VaccineCode:   "bcg",
		Status:        StatusUpcoming,
		ScheduledDate: time.Now().AddDate(0, 0, 30),
	}
	records.Create(context.Background(), pending)

	_, err := tracker.Report(context.Background(), userID, pending.ID, SideEffectInput{Severity: "mild"})
	ae := apperr.From(err)
	if ae == nil || ae.Code != "record_not_done" {
		t.Errorf("expected record_not_done, got %v", err)
	}

	done := doneRecord(records, userID, "bcg")
	if _, err := tracker.Report(context.Background(), userID, done.ID, SideEffectInput{Severity: "moderate"}); err != nil {
		t.Errorf("report on done record failed: %v", err)
	}
	if _, err := tracker.Report(context.Background(), userID, done.ID, SideEffectInput{Severity: "none"}); err == nil {
		t.Error("detailed path accepted severity none")
	}
}

func TestListDetailedReports(t *testing.T) {
	records := newMockRecordRepo()
	reports := &mockReportRepo{records: records}
	tracker := NewSideEffectTracker(records, reports)
	userID := uuid.New()
	rec := doneRecord(records, userID, "kpa-1")
	other := doneRecord(records, userID, "hepb-1")

	for _, sev := range []string{"mild", "moderate"} {
		if _, err := tracker.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: sev}); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
	}
	if _, err := tracker.Report(context.Background(), userID, other.ID, SideEffectInput{Severity: "severe"}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	got, err := tracker.ListReports(context.Background(), userID, rec.ID)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2", len(got))
	}
	for _, rep := range got {
		if rep.RecordID != rec.ID {
			t.Errorf("report %s belongs to record %s", rep.ID, rep.RecordID)
		}
	}

	// A foreign user sees not_found, not the reports.
	if _, err := tracker.ListReports(context.Background(), uuid.New(), rec.ID); err == nil {
		t.Error("expected not_found for a foreign user")
	}
}

func TestDetailedReportUnknownRecord(t *testing.T) {
	records := newMockRecordRepo()
	tracker := NewSideEffectTracker(records, &mockReportRepo{records: records})
	_, err := tracker.Report(context.Background(), uuid.New(), uuid.New(), SideEffectInput{Severity: "mild"})
	ae := apperr.From(err)
	if ae == nil || ae.Code != "record_not_found" {
		t.Errorf("expected record_not_found, got %v", err)
	}
}

func TestStatisticsKAnonymityBoundary(t *testing.T) {
	records := newMockRecordRepo()
	reports := &mockReportRepo{records: records}
	tracker := NewSideEffectTracker(records, reports)
	userID := uuid.New()

	// nine reports: suppressed
	for i := 0; i < 9; i++ {
		rec := doneRecord(records, userID, "hepb-1")
		if _, err := tracker.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: "mild"}); err != nil {
			t.Fatalf("report %d failed: %v", i, err)
		}
	}
	stats, err := tracker.GetStatistics(context.Background(), "hepb-1")
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.ReportCount != 9 {
		t.Errorf("report_count = %d", stats.ReportCount)
	}
	if stats.SideEffectRate != nil || stats.SeverityBreakdown != nil {
		t.Error("rates leaked below the report floor")
	}
	if stats.Message == "" {
		t.Error("missing refusal message")
	}

	// the tenth report flips identical data to a full breakdown
	rec := doneRecord(records, userID, "hepb-1")
	if _, err := tracker.Report(context.Background(), userID, rec.ID, SideEffectInput{Severity: "severe"}); err != nil {
		t.Fatal(err)
	}
	stats, err = tracker.GetStatistics(context.Background(), "hepb-1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.ReportCount != 10 {
		t.Errorf("report_count = %d", stats.ReportCount)
	}
	if stats.SideEffectRate == nil || stats.SeverityBreakdown == nil {
		t.Fatal("expected full statistics at ten reports")
	}
	if got := stats.SeverityBreakdown["mild"]; got != 90.0 {
		t.Errorf("mild share = %.1f, want 90.0", got)
	}
	if got := stats.SeverityBreakdown["severe"]; got != 10.0 {
		t.Errorf("severe share = %.1f, want 10.0", got)
	}
}
