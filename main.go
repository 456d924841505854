package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/princinho/parkingbackend/config"
	"github.com/princinho/parkingbackend/database"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/routes"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(utils.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime(),
	})
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	//seeding admin user
	if cfg.HasDefaultAdmin() {
		if err := utils.SeedAdminUser(ctx, db, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword, cfg.DefaultAdminFullName); err != nil {
			return err
		}
	}

	users := repository.NewUserRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	tokens, err := services.NewTokenService(cfg.JWTSecretKey, cfg.AccessTTL(), repository.NewRevokedTokenRepo(db))
	if err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.DisableRateLimit {
		slog.Warn("Rate limiting disabled")
	} else {
		limiter, err = middleware.NewRateLimiter(cfg.RateLimitCacheSize, nil)
		if err != nil {
			return err
		}
	}

	origins := cfg.Origins()
	slog.Info("Allowed origins", slog.Any("origins", origins))

	router, err := routes.NewRouter(routes.Deps{
		DB:             db,
		Authenticator:  services.NewAuthenticator(tokens, users),
		Auth:           services.NewAuthService(users, tokens),
		Slots:          services.NewSlotService(slotRepo, cfg.DefaultReadQueryLimit, cfg.ReadQueryMaxLimit),
		Bookings:       services.NewBookingService(bookingRepo, slotRepo),
		Availability:   services.NewAvailabilityService(slotRepo, bookingRepo),
		RateLimiter:    limiter,
		AllowedOrigins: origins,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
