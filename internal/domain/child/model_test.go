package child

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeInDays(t *testing.T) {
	p := Profile{BirthDate: date(2024, 1, 1)}
	if got := p.AgeInDays(date(2024, 1, 31)); got != 30 {
		t.Errorf("AgeInDays = %d, want 30", got)
	}
	if got := p.AgeInDays(date(2024, 1, 1)); got != 0 {
		t.Errorf("AgeInDays at birth = %d, want 0", got)
	}
}

func TestAgeInWeeks(t *testing.T) {
	p := Profile{BirthDate: date(2024, 1, 1)}
	if got := p.AgeInWeeks(date(2024, 2, 12)); got != 6 {
		t.Errorf("AgeInWeeks = %d, want 6", got)
	}
}

func TestAgeInMonthsCalendar(t *testing.T) {
	cases := []struct {
		birth, at time.Time
		want      int
	}{
		{date(2024, 1, 15), date(2024, 3, 15), 2},
		{date(2024, 1, 15), date(2024, 3, 14), 1},
		{date(2024, 1, 31), date(2024, 2, 29), 0},
		{date(2024, 1, 31), date(2024, 3, 31), 2},
		{date(2023, 6, 1), date(2025, 6, 1), 24},
		{date(2024, 5, 1), date(2024, 4, 1), 0},
	}
	for _, tc := range cases {
		p := Profile{BirthDate: tc.birth}
		if got := p.AgeInMonths(tc.at); got != tc.want {
			t.Errorf("AgeInMonths(%s -> %s) = %d, want %d",
				tc.birth.Format("2006-01-02"), tc.at.Format("2006-01-02"), got, tc.want)
		}
	}
}
