package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/clinic"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/reporting"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/domain/subscription"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/cache"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
	"github.com/clinicdesk/clinicdesk/internal/platform/websocket"
	"github.com/clinicdesk/clinicdesk/migrations"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clinicdesk-server",
		Short:        "Multi-tenant clinic management API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(jobsCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", true, "Apply pending migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				count, err := newMigrator(pool, dir).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				statuses, err := newMigrator(pool, dir).Status(ctx)
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
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func newMigrator(pool *pgxpool.Pool, dir string) *db.Migrator {
	if dir != "" {
		return db.NewMigrator(pool, os.DirFS(dir))
	}
	return db.NewMigrator(pool, migrations.FS)
}

func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

// jobsCmd runs the scheduled jobs once, for use from a system scheduler
// instead of the HTTP cron endpoints.
func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduled jobs once",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reminders",
		Short: "Send reminders for tomorrow's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), func(ctx context.Context, svc *reporting.Service) (interface{}, error) {
				return svc.SendReminders(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "daily-summary",
		Short: "Compute and archive yesterday's clinic summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd.Context(), func(ctx context.Context, svc *reporting.Service) (interface{}, error) {
				return svc.DailySummaries(ctx)
			})
		},
	})
	return cmd
}

func runJob(ctx context.Context, job func(ctx context.Context, svc *reporting.Service) (interface{}, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := job(ctx, app.reporting)
	if err != nil {
		return err
	}
	logger.Info().Interface("result", res).Msg("job finished")
	return nil
}

func runServer(migrate bool) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		l := newLogger(nil)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise dependencies")
	}
	defer app.Close()

	if migrate {
		count, err := newMigrator(app.pool, "").Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		logger.Info().Int("applied", count).Msg("migrations up to date")
	}

	e := newRouter(cfg, logger, app)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// app holds the wired services and the connections they share.
type app struct {
	pool    *pgxpool.Pool
	hub     *websocket.Hub
	tokens  *auth.TokenIssuer
	checks  []db.DependencyCheck
	closers []func()

	identity     *identity.Service
	clinics      *clinic.Service
	doctors      *doctor.Service
	patients     *patient.Service
	scheduling   *scheduling.Service
	billing      *billing.Service
	subscription *subscription.Service
	reporting    *reporting.Service
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects to Postgres and to whichever optional backends are
// configured. Missing backends degrade to in-process or log-only versions.
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &app{pool: pool, closers: []func(){pool.Close}}
	logger.Info().Msg("connected to database")

	var queueCache cache.Cache = cache.Noop{}
	var markers cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.checks = append(a.checks, db.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		r := cache.NewRedis(client)
		queueCache, markers = r, r
		logger.Info().Msg("connected to redis")
	}

	var sender notification.Sender = notification.NewLogSender(logger)
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		amqpSender, err := notification.NewAMQPSender(conn, "")
		if err != nil {
			conn.Close()
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() {
			amqpSender.Close()
			conn.Close()
		})
		a.checks = append(a.checks, db.DependencyCheck{Name: "amqp", Check: func(context.Context) error {
			if conn.IsClosed() {
				return fmt.Errorf("connection closed")
			}
			return nil
		}})
		sender = amqpSender
		logger.Info().Msg("connected to amqp")
	}

	var archive blobstore.Store
	if cfg.MinioEndpoint != "" {
		store, err := blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = store
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("connected to object store")
	}

	catalog, err := subscription.LoadCatalog(cfg.StripePriceBasic, cfg.StripePricePro)
	if err != nil {
		a.Close()
		return nil, err
	}
	var provider subscription.Provider
	if cfg.StripeEnabled() {
		provider = subscription.NewStripeProvider(cfg.StripeSecretKey)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, billing endpoints will return 503")
	}

	tx := db.NewTransactor(pool)
	a.tokens = auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	a.hub = websocket.NewHub(logger)

	userRepo := identity.NewUserRepoPG(pool)
	clinicRepo := clinic.NewClinicRepoPG(pool)

	a.subscription = subscription.NewService(subscription.NewRepoPG(pool), clinicRepo, provider, catalog,
		subscription.Options{
			TrialDays:     cfg.TrialDays,
			AppBaseURL:    cfg.AppBaseURL,
			WebhookSecret: cfg.StripeWebhookSecret,
		}, logger)
	a.doctors = doctor.NewService(doctor.NewRepoPG(pool))
	a.patients = patient.NewService(patient.NewRepoPG(pool))
	a.clinics = clinic.NewService(clinicRepo, clinic.NewMembershipRepoPG(pool), userRepo,
		a.doctors, a.subscription, tx, logger)
	a.identity = identity.NewService(userRepo, tx, a.clinics, a.clinics, a.tokens, logger)
	appointments := scheduling.NewRepoPG(pool)
	a.billing = billing.NewService(billing.NewServiceRepoPG(pool), billing.NewInvoiceRepoPG(pool),
		a.patients, scheduling.NewLookup(appointments), tx, logger)
	a.scheduling = scheduling.NewService(appointments, tx, scheduling.Directory{
		Clinics:  a.clinics,
		Doctors:  a.doctors,
		Patients: a.patients,
		Services: a.billing,
	}, queueCache, a.hub, cfg.QueuePollInterval, logger)

	notifier := notification.NewManager(sender, notification.NewTemplateEngine())
	a.reporting = reporting.NewService(reporting.NewRepoPG(pool), a.clinics, a.subscription,
		notifier, markers, archive, logger)

	return a, nil
}

func newRouter(cfg *config.Config, logger zerolog.Logger, a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:  a.tokens,
		Skipper: auth.AuthSkipper,
	}))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(a.pool, a.checks...))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	clinicGroup := apiV1.Group("/clinics/:clinicId")

	identity.NewHandler(a.identity).RegisterRoutes(apiV1)
	clinic.NewHandler(a.clinics).RegisterRoutes(clinicGroup)
	doctor.NewHandler(a.doctors, a.clinics).RegisterRoutes(clinicGroup)
	patient.NewHandler(a.patients, a.clinics).RegisterRoutes(clinicGroup)
	scheduling.NewHandler(a.scheduling, a.clinics).RegisterRoutes(clinicGroup)
	billing.NewHandler(a.billing, a.clinics).RegisterRoutes(clinicGroup)
	subscription.NewHandler(a.subscription, a.clinics).RegisterRoutes(apiV1, clinicGroup)
	reporting.NewHandler(a.reporting, a.clinics, cfg.CronSecret).RegisterRoutes(apiV1, clinicGroup)
	websocket.NewHandler(a.hub, a.clinics, logger).RegisterRoutes(e)

	return e
}
