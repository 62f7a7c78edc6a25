package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

const reportColumns = `id, patient_id, therapist_id, start_date, end_date, goals, summary, recommendations, next_steps, created_at`

// ReportRepository persists generated progress reports. Rows are never updated.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, report *models.ProgressReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO progress_reports (` + reportColumns + `)
VALUES (:id, :patient_id, :therapist_id, :start_date, :end_date, :goals, :summary, :recommendations, :next_steps, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create progress report: %w", err)
	}
	return nil
}

// GetByID returns a report. sql.ErrNoRows is returned unwrapped.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ProgressReport, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + reportColumns + ` FROM progress_reports WHERE id = $1`
	var report models.ProgressReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByPatient returns report history, newest first.
func (r *ReportRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.ProgressReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT ` + reportColumns + ` FROM progress_reports WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`
	var reports []models.ProgressReport
	if err := r.db.SelectContext(ctx, &reports, query, patientID, limit); err != nil {
		return nil, fmt.Errorf("list progress reports: %w", err)
	}
	return reports, nil
}

// Latest returns the newest report of a patient. sql.ErrNoRows is returned
// unwrapped when the patient has none.
func (r *ReportRepository) Latest(ctx context.Context, patientID string) (*models.ProgressReport, error) {
	const query = `SELECT ` + reportColumns + ` FROM progress_reports WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`
	var report models.ProgressReport
	if err := r.db.GetContext(ctx, &report, query, patientID); err != nil {
		return nil, err
	}
	return &report, nil
}
