package vaccine

import (
	"testing"
)

func TestBaseCode(t *testing.T) {
	cases := map[string]string{
		"hpv-gardasil9-2":    "hpv-gardasil9",
		"rotavirus-rotarix-1": "rotavirus-rotarix",
		"hepb-1":             "hepb",
		"bcg":                "bcg",
		"flu-2026":           "flu",
		"mmr-priorix":        "mmr-priorix", // non-numeric suffix stays
	}
	for in, want := range cases {
		if got := BaseCode(in); got != want {
			t.Errorf("BaseCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayStatus(t *testing.T) {
	today := date(2024, 6, 15)
	actual := date(2024, 6, 1)

	cases := []struct {
		name string
		rec  Record
		want string
	}{
		{"actual date wins", Record{Status: StatusUpcoming, ScheduledDate: date(2024, 7, 1), ActualDate: &actual}, StatusDone},
		{"stored done wins", Record{Status: StatusDone, ScheduledDate: date(2024, 1, 1)}, StatusDone},
		{"skipped sticks", Record{Status: StatusSkipped, ScheduledDate: date(2024, 1, 1)}, StatusSkipped},
		{"past is overdue", Record{Status: StatusUpcoming, ScheduledDate: date(2024, 6, 14)}, StatusOverdue},
		{"today is upcoming", Record{Status: StatusUpcoming, ScheduledDate: date(2024, 6, 15)}, StatusUpcoming},
		{"within a week", Record{Status: StatusUpcoming, ScheduledDate: date(2024, 6, 22)}, StatusUpcoming},
		{"beyond a week", Record{Status: StatusUpcoming, ScheduledDate: date(2024, 6, 23)}, StatusScheduled},
		{"delayed recomputes", Record{Status: StatusDelayed, ScheduledDate: date(2024, 5, 1)}, StatusOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.DisplayStatus(today); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
