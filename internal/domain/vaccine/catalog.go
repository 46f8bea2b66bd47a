package vaccine

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/kidsgourmet/api/internal/platform/db"
	"github.com/kidsgourmet/api/pkg/apperr"
)

// masterFile is the JSON shape of configs/vaccine_master.json.
type masterFile struct {
	ScheduleVersion string `json:"schedule_version"`
	Vaccines        []struct {
		Code        string     `json:"code"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Timing      TimingRule `json:"timing"`
		MinAgeDays  int        `json:"min_age_days"`
		MaxAgeDays  *int       `json:"max_age_days"`
		IsMandatory bool       `json:"is_mandatory"`
		DependsOn   *string    `json:"depends_on"`
		IsActive    *bool      `json:"is_active"`
	} `json:"vaccines"`
}

// Catalog loads and serves versioned vaccine definitions.
type Catalog struct {
	repo MasterRepository
	pool *pgxpool.Pool
}

func NewCatalog(repo MasterRepository, pool *pgxpool.Pool) *Catalog {
	return &Catalog{repo: repo, pool: pool}
}

// LoadMaster reads the catalog file and upserts every definition in a
// single transaction; any failure rolls the whole load back.
func (c *Catalog) LoadMaster(ctx context.Context, path, version string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, apperr.Internal(err).WithContext("path", path)
	}
	var file masterFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, apperr.Internal(err).WithContext("path", path)
	}
	if version == "" {
		version = file.ScheduleVersion
	}
	if version == "" {
		return 0, apperr.Validation("missing_version", "catalog file carries no schedule_version")
	}
	if len(file.Vaccines) == 0 {
		return 0, apperr.Validation("empty_catalog", "catalog file contains no vaccines")
	}

	count := 0
	err = db.InTx(ctx, c.pool, func(ctx context.Context) error {
		for _, v := range file.Vaccines {
			active := true
			if v.IsActive != nil {
				active = *v.IsActive
			}
			def := &Definition{
				Code:            v.Code,
				Name:            v.Name,
				Description:     v.Description,
				Timing:          v.Timing,
				MinAgeDays:      v.MinAgeDays,
				MaxAgeDays:      v.MaxAgeDays,
				IsMandatory:     v.IsMandatory,
				DependsOn:       v.DependsOn,
				ScheduleVersion: version,
				IsActive:        active,
			}
			if err := c.repo.Upsert(ctx, def); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Internal(err).WithContext("schedule_version", version)
	}
	log.Info().Str("schedule_version", version).Int("count", count).Msg("vaccine master loaded")
	return count, nil
}

// Definitions returns the active catalog for a schedule version.
func (c *Catalog) Definitions(ctx context.Context, version string) ([]*Definition, error) {
	defs, err := c.repo.ListByVersion(ctx, version, true)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return defs, nil
}
