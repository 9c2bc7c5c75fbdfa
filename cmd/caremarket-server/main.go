package main

import (
	"context"
	"errors"
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

	"github.com/caremarket/caremarket/internal/config"
	"github.com/caremarket/caremarket/internal/domain/account"
	"github.com/caremarket/caremarket/internal/domain/appointment"
	"github.com/caremarket/caremarket/internal/domain/cart"
	"github.com/caremarket/caremarket/internal/domain/catalog"
	"github.com/caremarket/caremarket/internal/domain/favorite"
	"github.com/caremarket/caremarket/internal/domain/inbox"
	"github.com/caremarket/caremarket/internal/domain/order"
	"github.com/caremarket/caremarket/internal/domain/prescription"
	"github.com/caremarket/caremarket/internal/domain/schedule"
	"github.com/caremarket/caremarket/internal/domain/upload"
	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/internal/platform/blobstore"
	"github.com/caremarket/caremarket/internal/platform/db"
	"github.com/caremarket/caremarket/internal/platform/kv"
	"github.com/caremarket/caremarket/internal/platform/middleware"
	"github.com/caremarket/caremarket/internal/platform/notification"
	"github.com/caremarket/caremarket/internal/platform/websocket"
	"github.com/caremarket/caremarket/pkg/respond"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "caremarket-server",
		Short: "CareMarket API Server",
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

// httpErrorHandler rewrites echo's default error responses into the standard
// envelope so that middleware rejections look the same as handler rejections.
func httpErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = respond.Error(c, status, message)
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

	// Redis
	store, err := kv.NewStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer store.Close()
	logger.Info().Msg("connected to redis")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit))

	e.Use(middleware.RequestTimeout(30 * time.Second))

	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	e.Use(auth.Middleware(issuer, auth.PublicPathSkipper(
		"/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
	)))

	// The limiter keys on user ID when one is present, so it must run after
	// authentication.
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	public := e.Group("/api/v1")
	api := e.Group("/api/v1")

	// Event fan-out: inbox rows, templated email, websocket pushes.
	hub := websocket.NewHub(logger)
	sender := &notification.LogSender{Log: logger}
	mailer := notification.NewManager(sender, sender, sender, notification.NewTemplateEngine(), logger)

	userRepo := account.NewRepoPG(pool)
	inboxRepo := inbox.NewRepoPG(pool)
	inboxSvc := inbox.NewService(inboxRepo)
	dispatcher := inbox.NewDispatcher(inboxSvc, mailer, hub, userRepo, logger)

	// Account domain
	accountSvc := account.NewService(userRepo, issuer, store, logger)
	account.NewHandler(accountSvc).RegisterRoutes(public, api)

	// Catalog domain
	productRepo := catalog.NewProductRepoPG(pool)
	catalogSvc := catalog.NewService(productRepo)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)

	// Cart domain
	cartRepo := cart.NewRepoPG(pool)
	cartSvc := cart.NewService(cartRepo, productRepo, store, logger)
	cart.NewHandler(cartSvc).RegisterRoutes(api)

	// Order domain
	orderRepo := order.NewRepoPG(pool)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.InTx(ctx, pool, fn)
	}
	orderSvc := order.NewService(orderRepo, cartSvc, productRepo, inTx, dispatcher, logger)
	order.NewHandler(orderSvc).RegisterRoutes(api)

	// Schedule and appointment domains. The appointment repository doubles as
	// the schedule's booking source; the setter breaks the construction cycle.
	scheduleRepo := schedule.NewRepoPG(pool)
	scheduleSvc := schedule.NewService(scheduleRepo, nil)
	apptRepo := appointment.NewRepoPG(pool)
	scheduleSvc.SetBookingSource(apptRepo)
	schedule.NewHandler(scheduleSvc).RegisterRoutes(api)

	apptSvc := appointment.NewService(apptRepo, scheduleSvc, dispatcher)
	appointment.NewHandler(apptSvc).RegisterRoutes(api)

	// Prescription domain
	rxRepo := prescription.NewRepoPG(pool)
	rxSvc := prescription.NewService(rxRepo, dispatcher)
	prescription.NewHandler(rxSvc).RegisterRoutes(api)

	// Favorite domain
	favRepo := favorite.NewRepoPG(pool)
	favSvc := favorite.NewService(favRepo)
	favorite.NewHandler(favSvc).RegisterRoutes(api)

	// Notification inbox
	inbox.NewHandler(inboxSvc).RegisterRoutes(api)

	// Uploads
	blobs := blobstore.NewMemory()
	uploadTimeout := time.Duration(cfg.UploadTimeout) * time.Second
	upload.NewHandler(blobs, uploadTimeout, logger).RegisterRoutes(api)

	// Websocket lives at the root so the request timeout skips it.
	websocket.NewHandler(hub).RegisterRoutes(e.Group(""))

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")

		var serveErr error
		if cfg.TLSEnabled {
			serveErr = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			serveErr = e.Start(addr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Fatal().Err(serveErr).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
