package child

import (
	"time"

	"github.com/google/uuid"
)

// Profile maps to the kg_child_profiles table. It is the single
// authoritative source of child birth dates for the whole platform.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	Gender    *string   `db:"gender" json:"gender,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AgeInDays returns the child's age in whole days at the given time.
func (p *Profile) AgeInDays(at time.Time) int {
	return int(at.Sub(p.BirthDate).Hours() / 24)
}

// AgeInWeeks returns the child's age in whole weeks at the given time.
func (p *Profile) AgeInWeeks(at time.Time) int {
	return p.AgeInDays(at) / 7
}

// AgeInMonths returns the child's age in whole calendar months at the given
// time.
func (p *Profile) AgeInMonths(at time.Time) int {
	years := at.Year() - p.BirthDate.Year()
	months := int(at.Month()) - int(p.BirthDate.Month())
	total := years*12 + months
	if at.Day() < p.BirthDate.Day() {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}
