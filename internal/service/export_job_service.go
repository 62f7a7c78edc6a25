package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/internal/repository"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/export"
	"github.com/noah-isme/aac-therapy-api/pkg/jobs"
)

// JobKindReportExport labels export jobs on the queue and in metrics.
const JobKindReportExport = "report_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ReportExportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportExportJob) (*ExportResult, error)
}

// ReportExportConfig governs queue recovery and cleanup.
type ReportExportConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportExportService manages the export job lifecycle.
type ReportExportService struct {
	repo     exportJobStore
	reports  reportReader
	queue    jobDispatcher
	exporter *ExportService
	logger   *zap.Logger
	cfg      ReportExportConfig
	now      func() time.Time
}

// NewReportExportService constructs the export job service.
func NewReportExportService(repo exportJobStore, reports reportReader, queue jobDispatcher, exporter *ExportService, logger *zap.Logger, cfg ReportExportConfig) *ReportExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportExportService{
		repo:     repo,
		reports:  reports,
		queue:    queue,
		exporter: exporter,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RequestExport validates the report and format, persists a queued job and
// hands it to the worker queue.
func (s *ReportExportService) RequestExport(ctx context.Context, reportID string, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return nil, err
	}
	job := &models.ReportExportJob{
		ReportID:  reportID,
		Format:    string(format),
		Status:    models.ExportStatusQueued,
		Progress:  0,
		CreatedBy: actorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Dependency(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindReportExport}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Dependency(err, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, ReportID: job.ReportID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata to clients.
func (s *ReportExportService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		ReportID: job.ReportID,
		Format:   job.Format,
		Status:   job.Status,
		Progress: job.Progress,
	}
	if job.Status == models.ExportStatusFinished && job.ResultURL != nil {
		resp.DownloadURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ReportExportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Dependency(err, "failed to open export file")
	}
	format, _ := export.ParseFormat(job.Format)
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(relPath),
		ContentType: format.ContentType(),
		ExpiresAt:   expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ReportExportService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindReportExport}); err != nil {
			s.logger.Warn("failed to requeue pending export", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("requeued pending exports", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup schedules the periodic purge of expired exports. The returned
// function stops the scheduler.
func (s *ReportExportService) StartCleanup(ctx context.Context) (func(), error) {
	if s.cfg.CleanupInterval <= 0 {
		return func() {}, nil
	}
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(s.cfg.CleanupInterval).Do(func() {
		s.cleanupExpired(ctx)
	}); err != nil {
		return nil, err
	}
	scheduler.StartAsync()
	s.logger.Info("export cleanup scheduled", zap.Duration("interval", s.cfg.CleanupInterval))
	return scheduler.Stop, nil
}

func (s *ReportExportService) cleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	const batch = 100
	jobsList, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range jobsList {
		if job.ResultURL == nil {
			continue
		}
		token := extractToken(*job.ResultURL)
		if token == "" {
			continue
		}
		_, relPath, _, err := s.exporter.ParseToken(token, true)
		if err != nil {
			continue
		}
		if err := s.exporter.Delete(relPath); err != nil {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	removed, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
		return
	}
	s.logger.Debug("export cleanup finished", zap.Int("jobs", len(jobsList)), zap.Int("files", len(removed)))
}

func (s *ReportExportService) load(ctx context.Context, id string) (*models.ReportExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Dependency(err, "failed to load export job")
	}
	return job, nil
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo       exportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ExportWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queue job. A failed attempt goes back to QUEUED until
// the retry budget is spent, then the job is marked FAILED.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark export queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}
	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}
