package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/repository"
	"github.com/noah-isme/aac-therapy-api/internal/service"
	"github.com/noah-isme/aac-therapy-api/pkg/cache"
	"github.com/noah-isme/aac-therapy-api/pkg/config"
	"github.com/noah-isme/aac-therapy-api/pkg/database"
	"github.com/noah-isme/aac-therapy-api/pkg/jobs"
	"github.com/noah-isme/aac-therapy-api/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// services bundles everything the router needs.
type services struct {
	auth          *service.AuthService
	goals         *service.GoalService
	tasks         *service.TaskService
	profiles      *service.PatientProfileService
	sessions      *service.SessionService
	reports       *service.ReportService
	exports       *service.ReportExportService
	collaboration *service.CollaborationService
	metrics       *service.MetricsService
}

func runServer(parent context.Context, cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	goalRepo := repository.NewGoalRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	collabRepo := repository.NewCollaborationRepository(db)
	exportRepo := repository.NewExportRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, redisClient != nil)

	svc := services{
		auth: service.NewAuthService(logr, authConfig(cfg)),
		goals: service.NewGoalService(goalRepo, validate, metrics, logr, service.GoalServiceConfig{
			EnforceMasteryStreak: cfg.Therapy.EnforceMasteryStreak,
		}),
		tasks:    service.NewTaskService(taskRepo, goalRepo, profileRepo, validate, logr),
		profiles: service.NewPatientProfileService(profileRepo, validate),
		sessions: service.NewSessionService(sessionRepo, validate, logr, cfg.Therapy.SessionLimit),
		reports: service.NewReportService(reportRepo, goalRepo, sessionRepo, cacheSvc, metrics, validate, logr, service.ReportServiceConfig{
			TrendDelta:          cfg.Therapy.TrendDelta,
			TrendMinPoints:      cfg.Therapy.TrendMinPoints,
			NotStartedThreshold: cfg.Therapy.NotStartedThreshold,
			CacheTTL:            cfg.Reports.CacheTTL,
		}),
		collaboration: service.NewCollaborationService(collabRepo, validate, metrics, logr),
		metrics:       metrics,
	}

	if cfg.Reports.ExportsEnabled {
		queue, stopCleanup, err := startExports(ctx, cfg, logr, &svc, exportRepo, metrics)
		if err != nil {
			return err
		}
		defer queue.Stop()
		defer stopCleanup()
	}

	router := newRouter(cfg, logr, svc, db)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startExports wires the export queue, worker, recovery and cleanup
// scheduler. Callers stop the queue and the scheduler on shutdown.
func startExports(ctx context.Context, cfg *config.Config, logr *zap.Logger, svc *services, repo *repository.ExportRepository, metrics *service.MetricsService) (*jobs.Queue, func(), error) {
	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(svc.reports, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)

	worker := service.NewExportWorker(repo, exporter, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("report-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		Observer:   metrics,
	})
	queue.Start(ctx)

	svc.exports = service.NewReportExportService(repo, svc.reports, queue, exporter, logr, service.ReportExportConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	if n := svc.exports.RecoverPendingJobs(ctx); n > 0 {
		logr.Info("recovered queued exports", zap.Int("count", n))
	}
	stopCleanup, err := svc.exports.StartCleanup(ctx)
	if err != nil {
		queue.Stop()
		return nil, nil, fmt.Errorf("start export cleanup: %w", err)
	}
	return queue, stopCleanup, nil
}
