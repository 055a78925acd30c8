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

	"github.com/carewave/hms/internal/config"
	"github.com/carewave/hms/internal/domain/audit"
	"github.com/carewave/hms/internal/domain/billing"
	"github.com/carewave/hms/internal/domain/identity"
	"github.com/carewave/hms/internal/domain/patient"
	"github.com/carewave/hms/internal/domain/pharmacy"
	"github.com/carewave/hms/internal/domain/prescription"
	"github.com/carewave/hms/internal/domain/scheduling"
	"github.com/carewave/hms/internal/platform/auth"
	"github.com/carewave/hms/internal/platform/db"
	"github.com/carewave/hms/internal/platform/middleware"
	"github.com/carewave/hms/internal/platform/notification"
	"github.com/carewave/hms/internal/platform/payment"
	"github.com/carewave/hms/internal/platform/storage"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital Management System API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HMS API server",
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

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwtCfg := auth.JWTConfig{
		SigningKey: []byte(cfg.AuthSecret),
		Issuer:     cfg.AuthIssuer,
	}

	// Audit trail (persistent, also consumed by the access middleware)
	auditRepo := audit.NewRepoPG(pool)
	auditSvc := audit.NewService(auditRepo, logger)

	// Notification stack. Mock senders are the deliberate default until a
	// real SMS/email provider is configured.
	templates := notification.NewTemplateEngine()
	notifier := notification.NewManager(&notification.MockEmailSender{}, &notification.MockSMSSender{}, templates)

	// Payment gateway. The mock is deterministic; a real gateway slots in
	// behind the same interface.
	gateway := payment.NewMockGateway()

	// File storage
	fileStore, err := storage.NewDiskStore(cfg.UploadsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Public routes (login) sit outside the auth middleware.
	public := e.Group("/api/v1")

	// Authenticated API group
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}
	apiV1.Use(middleware.Audit(logger, auditSvc))

	// -- Register Domain Handlers --

	// Identity
	userRepo := identity.NewUserRepoPG(pool)
	identitySvc := identity.NewService(userRepo, jwtCfg)
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(public)
	identityHandler.RegisterRoutes(apiV1)

	// Patients
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Scheduling (appointments, shifts, leave)
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	shiftRepo := scheduling.NewShiftRepoPG(pool)
	leaveRepo := scheduling.NewLeaveRepoPG(pool)
	schedSvc := scheduling.NewService(apptRepo, shiftRepo, leaveRepo)
	scheduling.NewHandler(schedSvc).RegisterRoutes(apiV1)

	// Pharmacy (medicines, vendors, stock)
	medicineRepo := pharmacy.NewMedicineRepoPG(pool)
	vendorRepo := pharmacy.NewVendorRepoPG(pool)
	movementRepo := pharmacy.NewMovementRepoPG(pool)
	pharmacySvc := pharmacy.NewService(medicineRepo, vendorRepo, movementRepo, pool, notifier, cfg.PharmacyAlertEmail, logger)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	// Prescriptions and dispensing
	prescriptionRepo := prescription.NewRepoPG(pool)
	prescriptionSvc := prescription.NewService(prescriptionRepo, medicineRepo, movementRepo, pool, notifier, logger)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(apiV1)

	// Billing and payments
	billRepo := billing.NewBillRepoPG(pool)
	paymentRepo := billing.NewPaymentRepoPG(pool)
	billingSvc := billing.NewService(billRepo, paymentRepo, pool, gateway, auditSvc, notifier, logger)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Audit trail queries
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Notifications
	notification.NewHandler(notifier).RegisterRoutes(apiV1)

	// File uploads
	storage.NewHandler(fileStore).RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
