package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-portal-auth"
	"github.com/goliatone/go-portal-auth/config"
	"github.com/goliatone/go-portal-auth/resume"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newSlogLogger(cfg.Server.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger auth.Logger) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := auth.Migrate(ctx, db); err != nil {
		return err
	}

	metrics := auth.NewMetricsSink()
	sink := auth.MultiActivitySink{
		metrics,
		auth.ActivitySinkFunc(func(_ context.Context, e auth.ActivityEvent) error {
			logger.Info("%s kind=%s account=%s reason=%s", e.EventType, e.Kind, e.AccountID, e.Reason)
			return nil
		}),
	}

	hasher := auth.NewArgon2Hasher()
	tokens := auth.NewTokenService(cfg.SigningConfig()).WithLogger(logger)

	userPolicy := auth.UserPolicy(cfg.UserTokenTTL())
	userStore := auth.NewUserStore(db)
	users := auth.NewRegistrar(userPolicy, userStore, hasher).
		WithLogger(logger).
		WithActivitySink(sink).
		WithPhoneRegion(cfg.Server.PhoneRegion)
	userAuth := auth.NewAuthenticator(userPolicy, userStore, hasher, tokens).
		WithLogger(logger).
		WithActivitySink(sink)

	adminPolicy := auth.AdminPolicy()
	adminStore := auth.NewAdminStore(db)
	admins := auth.NewRegistrar(adminPolicy, adminStore, hasher).
		WithLogger(logger).
		WithActivitySink(sink)
	adminAuth := auth.NewAuthenticator(adminPolicy, adminStore, hasher, tokens).
		WithLogger(logger).
		WithActivitySink(sink)

	var resumes resume.Storage = resume.NewMemoryStorage(cfg.Resume.Prefix)
	if cfg.ResumeEnabled() {
		s3Storage, err := resume.NewS3Storage(ctx, resume.S3Config{
			Bucket:          cfg.Resume.Bucket,
			Region:          cfg.Resume.Region,
			Endpoint:        cfg.Resume.Endpoint,
			AccessKeyID:     cfg.Resume.AccessKeyID,
			SecretAccessKey: cfg.Resume.SecretAccessKey,
			Prefix:          cfg.Resume.Prefix,
		})
		if err != nil {
			return err
		}
		resumes = s3Storage
	} else {
		logger.Warn("resume bucket not configured, uploads are kept in memory")
	}

	app := fiber.New(fiber.Config{
		AppName:      "portal-auth",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Resume.MaxSizeBytes) + 1<<20,
	})
	app.Use(cors.New())

	auth.RegisterPortalRoutes(app,
		auth.WithDebug(cfg.Server.Debug),
		auth.WithControllerLogger(logger),
		auth.WithUserServices(users, userAuth),
		auth.WithAdminServices(admins, adminAuth),
		auth.WithTokenValidator(tokens),
		auth.WithResumeStorage(resumes, cfg.Resume.MaxSizeBytes),
		auth.WithMetrics(metrics),
		auth.WithLoginLimiter(auth.NewLoginLimiter(cfg.Server.LoginRate, cfg.Server.LoginBurst)),
	)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	logger.Info("listening on %s", cfg.Server.Addr)
	return app.Listen(cfg.Server.Addr)
}
