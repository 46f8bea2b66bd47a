package vaccine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/kidsgourmet/api/internal/domain/child"
	"github.com/kidsgourmet/api/internal/platform/redisguard"
	"github.com/kidsgourmet/api/pkg/apperr"
)

// ChildReader is the slice of the child store the vaccine domain needs.
type ChildReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*child.Profile, error)
}

// Service is the vaccine record manager: it turns calculator output into
// persisted per-child records and owns their lifecycle.
type Service struct {
	records  RecordRepository
	catalog  *Catalog
	children ChildReader
	locker   redisguard.Locker
	version  string
}

func NewService(records RecordRepository, catalog *Catalog, children ChildReader, locker redisguard.Locker, scheduleVersion string) *Service {
	if locker == nil {
		locker = redisguard.NopLocker{}
	}
	return &Service{
		records:  records,
		catalog:  catalog,
		children: children,
		locker:   locker,
		version:  scheduleVersion,
	}
}

func (s *Service) child(ctx context.Context, userID, childID uuid.UUID) (*child.Profile, error) {
	p, err := s.children.GetByID(ctx, childID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("child_not_found", "child profile not found")
		}
		return nil, apperr.Internal(err)
	}
	if p.UserID != userID {
		return nil, apperr.NotFound("child_not_found", "child profile not found")
	}
	return p, nil
}

// CreateScheduleForChild materializes the full schedule for a child.
// Creation is idempotent by rejection: any existing record for the child
// fails the call with schedule_exists and leaves the store untouched.
// The check-then-insert pair runs under the per-child lock.
func (s *Service) CreateScheduleForChild(ctx context.Context, userID, childID uuid.UUID, includePrivate bool) ([]*Record, error) {
	profile, err := s.child(ctx, userID, childID)
	if err != nil {
		return nil, err
	}
	if profile.BirthDate.IsZero() || profile.BirthDate.After(time.Now()) {
		return nil, apperr.Validation("invalid_birth_date", "child has no usable birth date")
	}

	defs, err := s.catalog.Definitions(ctx, s.version)
	if err != nil {
		return nil, err
	}
	doses := Calculate(profile.BirthDate, defs, includePrivate)
	if len(doses) == 0 {
		return nil, apperr.Validation("no_vaccines", "no applicable vaccines in the active catalog")
	}

	var created []*Record
	err = s.locker.WithChildLock(ctx, childID, func(ctx context.Context) error {
		count, err := s.records.CountByChild(ctx, childID)
		if err != nil {
			return apperr.Internal(err)
		}
		if count > 0 {
			return apperr.Conflict("schedule_exists", "a vaccine schedule already exists for this child").
				WithContext("record_count", count)
		}
		for _, d := range doses {
			created = append(created, &Record{
				UserID:        userID,
				ChildID:       childID,
				VaccineCode:   d.VaccineCode,
				Status:        StatusUpcoming,
				ScheduledDate: d.ScheduledDate,
			})
		}
		if err := s.records.BulkCreate(ctx, created); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("child_id", childID.String()).Int("records", len(created)).Msg("vaccine schedule created")
	return created, nil
}

// RecordView is a record enriched with its derived display status.
type RecordView struct {
	*Record
	DisplayStatus string      `json:"display_status"`
	Vaccine       *Definition `json:"vaccine,omitempty"`
}

// GetChildVaccines returns the child's records with status derived at
// read time. The derivation is never persisted back; the stored status
// column may lag behind what is displayed.
func (s *Service) GetChildVaccines(ctx context.Context, userID, childID uuid.UUID, statusFilter string) ([]*RecordView, error) {
	if _, err := s.child(ctx, userID, childID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByChild(ctx, childID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	defs, err := s.catalog.Definitions(ctx, s.version)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		byCode[d.Code] = d
	}

	today := time.Now()
	views := make([]*RecordView, 0, len(records))
	for _, rec := range records {
		display := rec.DisplayStatus(today)
		if statusFilter != "" && display != statusFilter {
			continue
		}
		views = append(views, &RecordView{
			Record:        rec,
			DisplayStatus: display,
			Vaccine:       byCode[rec.VaccineCode],
		})
	}
	return views, nil
}

func (s *Service) record(ctx context.Context, userID, recordID uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("record_not_found", "vaccine record not found")
		}
		return nil, apperr.Internal(err)
	}
	if rec.UserID != userID {
		return nil, apperr.NotFound("record_not_found", "vaccine record not found")
	}
	return rec, nil
}

// MarkAsDone records the administration date and persists status done.
func (s *Service) MarkAsDone(ctx context.Context, userID, recordID uuid.UUID, actualDate time.Time, notes string) (*Record, error) {
	rec, err := s.record(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	if actualDate.IsZero() {
		return nil, apperr.Validation("invalid_actual_date", "actual_date is required")
	}
	rec.Status = StatusDone
	rec.ActualDate = &actualDate
	if notes != "" {
		rec.Notes = notes
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return rec, nil
}

// UpdateStatus sets the persisted status after enum validation.
func (s *Service) UpdateStatus(ctx context.Context, userID, recordID uuid.UUID, status, notes string) (*Record, error) {
	if !ValidStatuses[status] {
		return nil, apperr.Validation("invalid_status", "status must be one of upcoming, done, skipped, delayed")
	}
	rec, err := s.record(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	if notes != "" {
		rec.Notes = notes
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return rec, nil
}

// AddPrivateVaccine adds one optional vaccine to an existing schedule,
// resolving its date through the calculator on the single definition.
func (s *Service) AddPrivateVaccine(ctx context.Context, userID, childID uuid.UUID, code string) (*Record, error) {
	profile, err := s.child(ctx, userID, childID)
	if err != nil {
		return nil, err
	}
	def, err := s.catalog.repo.GetByCode(ctx, code, s.version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("vaccine_not_found", "vaccine not found in the active catalog")
		}
		return nil, apperr.Internal(err)
	}

	var created *Record
	err = s.locker.WithChildLock(ctx, childID, func(ctx context.Context) error {
		exists, err := s.records.ExistsByChildAndCode(ctx, childID, code)
		if err != nil {
			return apperr.Internal(err)
		}
		if exists {
			return apperr.Conflict("vaccine_exists", "this vaccine is already in the child's schedule").
				WithContext("vaccine_code", code)
		}
		doses := Calculate(profile.BirthDate, []*Definition{def}, true)
		if len(doses) == 0 {
			return apperr.Validation("no_vaccines", "the vaccine's timing rule produced no date")
		}
		created = &Record{
			UserID:        userID,
			ChildID:       childID,
			VaccineCode:   code,
			Status:        StatusUpcoming,
			ScheduledDate: doses[0].ScheduledDate,
		}
		if err := s.records.Create(ctx, created); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
