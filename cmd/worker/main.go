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

	"github.com/cmlabs-hris/timeclock-reconciler/internal/config"
	appHTTP "github.com/cmlabs-hris/timeclock-reconciler/internal/handler/http"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/cron"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/telemetry"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/repository/postgresql"
	timeclockService "github.com/cmlabs-hris/timeclock-reconciler/internal/service/timeclock"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "timeclock-reconciler")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.Insecure)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown error", "error", err)
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewPostgreSQLDB(connectCtx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	cancel()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	requestRepo := postgresql.NewTimeclockRequestRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	locationRepo := postgresql.NewLocationRepository(db)

	timeclockSvc := timeclockService.NewTimeclockService(
		postgresql.NewTransactor(db),
		requestRepo,
		shiftRepo,
		employeeRepo,
		locationRepo,
	)

	scheduler := cron.NewScheduler()
	cron.NewTimeclockJobs(timeclockSvc, cfg.Worker.PollInterval, cfg.Worker.StaleAfter, cfg.Worker.StaleCheckInterval).
		RegisterJobs(scheduler)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.OperatorExpiration)
	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}, JWTService, appHTTP.NewTimeclockHandler(timeclockSvc))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      otelhttp.NewHandler(router, "timeclock-ops"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	scheduler.Start()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Ops API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down")

		// the scheduler lets the request in flight finish before returning
		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
