package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

const exportColumns = `id, report_id, format, status, progress, result_url, error_message, created_by, created_at, finished_at`

// ExportRepository persists report export job metadata.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job row with generated defaults.
func (r *ExportRepository) Create(ctx context.Context, job *models.ReportExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_exports (` + exportColumns + `)
VALUES (:id, :report_id, :format, :status, :progress, :result_url, :error_message, :created_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID returns a job row. sql.ErrNoRows is returned unwrapped.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.ReportExportJob, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + exportColumns + ` FROM report_exports WHERE id = $1`
	var job models.ReportExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportParams defines the mutable fields.
type UpdateExportParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a job row.
func (r *ExportRepository) Update(ctx context.Context, id string, params UpdateExportParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_exports SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs for cold start recovery.
func (r *ExportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + exportColumns + ` FROM report_exports WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ReportExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list queued export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs finished before cutoff.
func (r *ExportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + exportColumns + ` FROM report_exports
WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.ReportExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished export jobs: %w", err)
	}
	return jobs, nil
}
