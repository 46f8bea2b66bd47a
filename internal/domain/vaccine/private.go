package vaccine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kidsgourmet/api/internal/platform/redisguard"
	"github.com/kidsgourmet/api/pkg/apperr"
)

// Single-dose private vaccines default to one week out from today; the
// original system carries no configuration knob for this.
const singleDoseLeadDays = 7

// PrivateBrand is one purchasable brand of a private vaccine type.
type PrivateBrand struct {
	Code                    string           `json:"code"`
	Name                    string           `json:"name"`
	MinAgeWeeks             *int             `json:"min_age_weeks,omitempty"`
	MinAgeMonths            *int             `json:"min_age_months,omitempty"`
	RecommendedMaxAgeMonths *int             `json:"recommended_max_age_months,omitempty"`
	TotalDoses              int              `json:"total_doses"`
	DoseIntervalsWeeks      []int            `json:"dose_intervals_weeks,omitempty"`
	DoseIntervalsMonths     []int            `json:"dose_intervals_months,omitempty"`
	Schedules               map[string][]int `json:"schedules,omitempty"`
}

// PrivateType groups the brands offered for one vaccine type.
type PrivateType struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Brands      []PrivateBrand `json:"brands"`
}

// PrivateConfig is the file-backed wizard configuration, keyed by type.
type PrivateConfig map[string]PrivateType

// LoadPrivateConfig reads configs/private_vaccines.json.
func LoadPrivateConfig(path string) (PrivateConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Internal(err).WithContext("path", path)
	}
	var cfg PrivateConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, apperr.Internal(err).WithContext("path", path)
	}
	return cfg, nil
}

// Wizard drives the multi-step private-vaccine flow: option listing,
// validation against the child's age and history, and series expansion.
type Wizard struct {
	config   PrivateConfig
	records  RecordRepository
	children ChildReader
	locker   redisguard.Locker
}

func NewWizard(config PrivateConfig, records RecordRepository, children ChildReader, locker redisguard.Locker) *Wizard {
	if locker == nil {
		locker = redisguard.NopLocker{}
	}
	return &Wizard{config: config, records: records, children: children, locker: locker}
}

// Options exposes the raw configuration for the wizard UI.
func (w *Wizard) Options() PrivateConfig {
	return w.config
}

// AdditionInput selects a type, a brand, and, where the brand offers
// named regimens, one schedule.
type AdditionInput struct {
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Schedule string `json:"schedule,omitempty"`
}

// ValidationResult reports the age snapshot and any non-fatal warnings.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Warnings  []string `json:"warnings"`
	AgeDays   int      `json:"age_days"`
	AgeWeeks  int      `json:"age_weeks"`
	AgeMonths int      `json:"age_months"`
}

func (w *Wizard) brand(in AdditionInput) (*PrivateBrand, []int, bool, error) {
	typ, ok := w.config[in.Type]
	if !ok {
		return nil, nil, false, apperr.Validation("invalid_type", "unknown private vaccine type").
			WithContext("type", in.Type)
	}
	var brand *PrivateBrand
	for i := range typ.Brands {
		if typ.Brands[i].Code == in.Brand {
			brand = &typ.Brands[i]
			break
		}
	}
	if brand == nil {
		return nil, nil, false, apperr.Validation("invalid_brand", "unknown brand for this vaccine type").
			WithContext("brand", in.Brand)
	}

	// Named multi-schedule brands require an explicit regimen choice;
	// the chosen schedule's intervals are in weeks.
	if len(brand.Schedules) > 0 {
		if in.Schedule == "" {
			return nil, nil, false, apperr.Validation("schedule_required", "this brand requires a schedule selection")
		}
		intervals, ok := brand.Schedules[in.Schedule]
		if !ok {
			return nil, nil, false, apperr.Validation("invalid_schedule", "unknown schedule for this brand").
				WithContext("schedule", in.Schedule)
		}
		return brand, intervals, true, nil
	}
	if len(brand.DoseIntervalsWeeks) > 0 {
		return brand, brand.DoseIntervalsWeeks, true, nil
	}
	return brand, brand.DoseIntervalsMonths, false, nil
}

// ValidateAddition checks the selection against the child's age and
// existing records. Being too young is a hard error; being past the
// recommended window and overlapping an administered dose of the same
// base type are warnings only.
func (w *Wizard) ValidateAddition(ctx context.Context, userID, childID uuid.UUID, in AdditionInput) (*ValidationResult, error) {
	profile, err := w.children.GetByID(ctx, childID)
	if err != nil {
		return nil, apperr.NotFound("child_not_found", "child profile not found")
	}
	if profile.UserID != userID {
		return nil, apperr.NotFound("child_not_found", "child profile not found")
	}
	brand, _, _, err := w.brand(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := &ValidationResult{
		Valid:     true,
		Warnings:  []string{},
		AgeDays:   profile.AgeInDays(now),
		AgeWeeks:  profile.AgeInWeeks(now),
		AgeMonths: profile.AgeInMonths(now),
	}

	if brand.MinAgeWeeks != nil && res.AgeWeeks < *brand.MinAgeWeeks {
		return nil, apperr.Validation("validation_failed",
			fmt.Sprintf("child must be at least %d weeks old for %s", *brand.MinAgeWeeks, brand.Name)).
			WithContext("age_weeks", res.AgeWeeks)
	}
	if brand.MinAgeMonths != nil && res.AgeMonths < *brand.MinAgeMonths {
		return nil, apperr.Validation("validation_failed",
			fmt.Sprintf("child must be at least %d months old for %s", *brand.MinAgeMonths, brand.Name)).
			WithContext("age_months", res.AgeMonths)
	}
	if brand.RecommendedMaxAgeMonths != nil && res.AgeMonths > *brand.RecommendedMaxAgeMonths {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("child is past the recommended window of %d months for %s", *brand.RecommendedMaxAgeMonths, brand.Name))
	}

	records, err := w.records.ListByChild(ctx, childID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	// Any administered dose sharing the base type warns, across brands.
	for _, rec := range records {
		if !strings.HasPrefix(rec.VaccineCode, in.Type+"-") {
			continue
		}
		if rec.ActualDate != nil || rec.Status == StatusDone {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("a dose of %s was already administered on record %s", in.Type, rec.VaccineCode))
		}
	}
	return res, nil
}

// AddToSchedule expands the brand's dose plan into records coded
// {type}-{brand}-{doseIndex}. Multi-dose dates are cumulative interval
// sums from the birth date; a single dose defaults to a week from today.
func (w *Wizard) AddToSchedule(ctx context.Context, userID, childID uuid.UUID, in AdditionInput) ([]*Record, error) {
	if _, err := w.ValidateAddition(ctx, userID, childID, in); err != nil {
		return nil, err
	}
	profile, err := w.children.GetByID(ctx, childID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	brand, intervals, inWeeks, err := w.brand(in)
	if err != nil {
		return nil, err
	}

	// The selected regimen decides the dose count: named schedules can be
	// shorter than the brand's default, so intervals win over total_doses.
	doses := brand.TotalDoses
	if len(intervals) > 0 {
		doses = len(intervals)
	}
	if doses <= 0 {
		doses = 1
	}
	base := in.Type + "-" + in.Brand

	var created []*Record
	err = w.locker.WithChildLock(ctx, childID, func(ctx context.Context) error {
		exists, err := w.records.ExistsByChildAndCode(ctx, childID, base+"-1")
		if err != nil {
			return apperr.Internal(err)
		}
		if exists {
			return apperr.Conflict("vaccine_exists", "this vaccine series is already in the child's schedule").
				WithContext("vaccine_code", base)
		}

		dates := w.doseDates(profile.BirthDate, doses, intervals, inWeeks)
		for i, date := range dates {
			created = append(created, &Record{
				UserID:        userID,
				ChildID:       childID,
				VaccineCode:   fmt.Sprintf("%s-%d", base, i+1),
				Status:        StatusUpcoming,
				ScheduledDate: date,
			})
		}
		if err := w.records.BulkCreate(ctx, created); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("child_id", childID.String()).Str("series", base).Int("doses", len(created)).
		Msg("private vaccine series added")
	return created, nil
}

func (w *Wizard) doseDates(birth time.Time, doses int, intervals []int, inWeeks bool) []time.Time {
	if doses == 1 && len(intervals) == 0 {
		return []time.Time{truncateDay(time.Now()).AddDate(0, 0, singleDoseLeadDays)}
	}
	dates := make([]time.Time, 0, doses)
	cumWeeks, cumMonths := 0, 0
	for i := 0; i < doses; i++ {
		if i < len(intervals) {
			if inWeeks {
				cumWeeks += intervals[i]
			} else {
				cumMonths += intervals[i]
			}
		}
		if inWeeks {
			dates = append(dates, birth.AddDate(0, 0, cumWeeks*7))
		} else {
			dates = append(dates, addCalendarMonths(birth, cumMonths))
		}
	}
	return dates
}

// RemoveSeries deletes every record of one private series by its base
// code prefix. Callers may pass any dose code of the series; the numeric
// dose suffix is stripped first. Nothing outside the prefix is touched.
func (w *Wizard) RemoveSeries(ctx context.Context, userID, childID uuid.UUID, baseCode string) (int, error) {
	profile, err := w.children.GetByID(ctx, childID)
	if err != nil || profile.UserID != userID {
		return 0, apperr.NotFound("child_not_found", "child profile not found")
	}
	n, err := w.records.DeleteByCodePrefix(ctx, userID, childID, BaseCode(baseCode)+"-")
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if n == 0 {
		return 0, apperr.NotFound("series_not_found", "no records match this series").
			WithContext("base_code", baseCode)
	}
	log.Info().Str("child_id", childID.String()).Str("series", baseCode).Int("deleted", n).
		Msg("private vaccine series removed")
	return n, nil
}
