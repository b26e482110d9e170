package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"qs-governance/internal/api"
	"qs-governance/internal/config"
	"qs-governance/internal/middleware"
	"qs-governance/internal/quicksight"
	"qs-governance/internal/scheduler"
	"qs-governance/internal/secrets"
	"qs-governance/internal/service/collector"
	"qs-governance/internal/service/governance"
	"qs-governance/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return err
	}

	gateway := quicksight.NewFromConfig(awsCfg, cfg.QuickSightRPS, logger)
	store := storage.NewS3ManifestStore(newS3Client(cfg, awsCfg), cfg.Bucket)

	users := governance.NewUserReconciler(gateway, cfg.RoleName, cfg.NamespaceSettleWait, logger)
	assets := governance.NewAssetReconciler(gateway, cfg.Region, logger)
	runner := governance.NewRunner(gateway, store, users, assets, governance.RunnerOptions{
		AccountID:        cfg.AccountID,
		UserManifestKey:  cfg.UserManifestKey,
		AssetManifestKey: cfg.AssetManifestKey,
	}, logger)

	var manifestCollector *collector.Collector
	if cfg.CollectorEnabled() {
		provider := secrets.NewProvider(secretsmanager.NewFromConfig(awsCfg))
		manifestCollector = collector.New(provider, store, collector.Options{
			SecretID:    cfg.OktaSecretID,
			ManifestKey: cfg.UserManifestKey,
		}, logger)
	}

	history := api.NewRunHistory(50)
	handler := api.NewHandler(runner, asAPICollector(manifestCollector), history, logger)

	sched := scheduler.New(runner, asSchedulerCollector(manifestCollector), history, logger)
	if err := sched.Register(scheduler.Schedules{
		Users:   cfg.UserRunSchedule,
		Assets:  cfg.AssetRunSchedule,
		Collect: cfg.CollectSchedule,
	}); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "X-API-Key", "X-Request-ID", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth([]byte(cfg.JWTSecret), cfg.APIKey))
		handler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("admin API listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newS3Client builds the manifest bucket client. With S3_ENDPOINT set the
// bucket lives on an S3-compatible store (MinIO in development) and needs
// static credentials plus path-style addressing.
func newS3Client(cfg *config.Config, awsCfg aws.Config) *s3.Client {
	if cfg.S3Endpoint == "" {
		return s3.NewFromConfig(awsCfg)
	}
	return s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID, cfg.S3SecretKey, "",
		),
		BaseEndpoint: aws.String(cfg.S3Endpoint),
		UsePathStyle: true,
	})
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// A nil *collector.Collector must become a nil interface, not a typed nil,
// so the handler and scheduler can treat the collector as absent.
func asAPICollector(c *collector.Collector) api.ManifestCollector {
	if c == nil {
		return nil
	}
	return c
}

func asSchedulerCollector(c *collector.Collector) scheduler.ManifestCollector {
	if c == nil {
		return nil
	}
	return c
}
