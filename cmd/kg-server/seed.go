package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/kidsgourmet/api/internal/config"
	"github.com/kidsgourmet/api/internal/domain/account"
	"github.com/kidsgourmet/api/internal/domain/child"
	"github.com/kidsgourmet/api/internal/domain/vaccine"
	"github.com/kidsgourmet/api/internal/platform/auth"
	"github.com/kidsgourmet/api/internal/platform/db"
	"github.com/kidsgourmet/api/internal/platform/redisguard"
)

const (
	seedUsers           = 5
	seedChildrenPerUser = 2
	seedPassword        = "kidsgourmet-demo"
)

// runSeed creates demo accounts with children and vaccination schedules.
// Everything goes through the regular service layer so seeded data is
// indistinguishable from data created through the API.
func runSeed() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := vaccine.NewCatalog(vaccine.NewMasterRepoPG(pool), pool)
	if _, err := catalog.LoadMaster(ctx, cfg.VaccineMasterFile, cfg.ScheduleVersion); err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)
	accountSvc := account.NewService(account.NewRepoPG(pool), tokens)
	childRepo := child.NewRepoPG(pool)
	childSvc := child.NewService(childRepo)
	vaccineSvc := vaccine.NewService(
		vaccine.NewRecordRepoPG(pool), catalog, childRepo, redisguard.NopLocker{}, cfg.ScheduleVersion)

	faker := gofakeit.New(0)
	genders := []string{"male", "female", "other"}

	for i := 0; i < seedUsers; i++ {
		email := fmt.Sprintf("demo%d@kidsgourmet.example", i+1)
		res, err := accountSvc.Register(ctx, account.RegisterInput{
			Email:       email,
			Password:    seedPassword,
			DisplayName: faker.Name(),
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", email, err)
		}

		for j := 0; j < seedChildrenPerUser; j++ {
			// Children between newborn and four years old so schedules land
			// across the upcoming/overdue spectrum.
			ageDays := faker.Number(30, 4*365)
			birth := time.Now().UTC().AddDate(0, 0, -ageDays)
			gender := genders[faker.Number(0, len(genders)-1)]

			c, err := childSvc.Create(ctx, res.User.ID, child.CreateInput{
				Name:      faker.FirstName(),
				BirthDate: birth.Format("2006-01-02"),
				Gender:    &gender,
			})
			if err != nil {
				return fmt.Errorf("seed child for %s: %w", email, err)
			}

			records, err := vaccineSvc.CreateScheduleForChild(ctx, res.User.ID, c.ID, false)
			if err != nil {
				return fmt.Errorf("seed schedule for %s: %w", c.Name, err)
			}

			// Mark past doses as administered on their scheduled dates.
			done := 0
			for _, r := range records {
				if r.ScheduledDate.Before(time.Now().UTC()) {
					if _, err := vaccineSvc.MarkAsDone(ctx, res.User.ID, r.ID, r.ScheduledDate, ""); err != nil {
						return fmt.Errorf("seed record completion: %w", err)
					}
					done++
				}
			}
			fmt.Printf("  child %-12s born %s: %d doses scheduled, %d done\n",
				c.Name, birth.Format("2006-01-02"), len(records), done)
		}
		fmt.Printf("seeded user %s (password: %s)\n", email, seedPassword)
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Seeded %d users with %d children each.\n", seedUsers, seedChildrenPerUser)
	return nil
}
