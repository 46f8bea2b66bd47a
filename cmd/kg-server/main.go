package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kidsgourmet/api/internal/config"
	"github.com/kidsgourmet/api/internal/domain/account"
	"github.com/kidsgourmet/api/internal/domain/child"
	"github.com/kidsgourmet/api/internal/domain/content"
	"github.com/kidsgourmet/api/internal/domain/newsletter"
	"github.com/kidsgourmet/api/internal/domain/vaccine"
	"github.com/kidsgourmet/api/internal/platform/auth"
	"github.com/kidsgourmet/api/internal/platform/db"
	"github.com/kidsgourmet/api/internal/platform/middleware"
	"github.com/kidsgourmet/api/internal/platform/notification"
	"github.com/kidsgourmet/api/internal/platform/redisguard"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "kg-server",
		Short: "KidsGourmet API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(vaccineCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

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

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func vaccineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaccine",
		Short: "Manage the vaccine master catalog",
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load the vaccine master catalog from file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			ver, _ := cmd.Flags().GetString("version")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.VaccineMasterFile
			}
			if ver == "" {
				ver = cfg.ScheduleVersion
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			catalog := vaccine.NewCatalog(vaccine.NewMasterRepoPG(pool), pool)
			count, err := catalog.LoadMaster(ctx, file, ver)
			if err != nil {
				return fmt.Errorf("catalog load failed: %w", err)
			}

			fmt.Printf("Loaded %d vaccine definition(s) for schedule version %s.\n", count, ver)
			return nil
		},
	}
	loadCmd.Flags().String("file", "", "Path to the master catalog JSON (defaults to VACCINE_MASTER_FILE)")
	loadCmd.Flags().String("version", "", "Schedule version to load (defaults to SCHEDULE_VERSION)")
	cmd.AddCommand(loadCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo accounts, children and vaccination schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

// publicRouteSkipper reports which routes bypass bearer-token auth.
// Registration, login and newsletter endpoints are fully public; the content
// catalog is public for reads only, writes still require a token.
func publicRouteSkipper() auth.Skipper {
	publicPaths := auth.PathSkipper(
		"/kg/v1/auth/*",
		"/kg/v1/newsletter/*",
	)
	publicReads := auth.PathSkipper(
		"/kg/v1/recipes*",
		"/kg/v1/ingredients*",
		"/kg/v1/discussions*",
	)
	return func(c echo.Context) bool {
		if publicPaths(c) {
			return true
		}
		return c.Request().Method == http.MethodGet && publicReads(c)
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("refusing to serve with invalid configuration")
		return err
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis lock for schedule creation. Optional: without Redis the service
	// falls back to unguarded writes, relying on the database count check.
	var locker redisguard.Locker = redisguard.NopLocker{}
	if cfg.RedisAddr != "" {
		client, err := redisguard.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, schedule locking disabled")
		} else {
			defer client.Close()
			locker = redisguard.NewChildLocker(client, 10*time.Second)
			logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
		}
	}

	// Token manager
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)

	// Email
	outbox := notification.NewOutbox(&notification.LogSender{Logger: logger}, notification.NewTemplateEngine())

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API group
	api := e.Group("/kg/v1")

	api.Use(auth.Middleware(tokens, publicRouteSkipper()))

	// Rate limiting keys on the authenticated user, falling back to client IP
	// for public routes, so it runs after auth.
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Domain wiring
	accountSvc := account.NewService(account.NewRepoPG(pool), tokens)
	account.NewHandler(accountSvc).RegisterRoutes(api)

	childRepo := child.NewRepoPG(pool)
	childSvc := child.NewService(childRepo)
	child.NewHandler(childSvc).RegisterRoutes(api)

	recordRepo := vaccine.NewRecordRepoPG(pool)
	catalog := vaccine.NewCatalog(vaccine.NewMasterRepoPG(pool), pool)
	vaccineSvc := vaccine.NewService(recordRepo, catalog, childRepo, locker, cfg.ScheduleVersion)

	privateCfg, err := vaccine.LoadPrivateConfig(cfg.PrivateVaccineFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.PrivateVaccineFile).Msg("failed to load private vaccine config")
	}
	wizard := vaccine.NewWizard(privateCfg, recordRepo, childRepo, locker)

	inline := vaccine.NewSideEffectManager(recordRepo)
	tracker := vaccine.NewSideEffectTracker(recordRepo, vaccine.NewReportRepoPG(pool))
	vaccine.NewHandler(vaccineSvc, wizard, inline, tracker).RegisterRoutes(api)

	newsletterSvc := newsletter.NewService(newsletter.NewRepoPG(pool), outbox, cfg.NewsletterBaseURL)
	newsletter.NewHandler(newsletterSvc).RegisterRoutes(api)

	contentSvc := content.NewService(
		content.NewRecipeRepoPG(pool),
		content.NewIngredientRepoPG(pool),
		content.NewDiscussionRepoPG(pool),
	)
	content.NewHandler(contentSvc).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
