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

const goalColumns = `id, patient_id, therapist_id, discipline, title, description, baseline, target,
	mastery_criteria, current_progress, mastery_streak, status, mastered_at, created_at, updated_at`

// GoalRepository persists therapy goals and their measurement log.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository constructs the repository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create inserts a new goal row.
func (r *GoalRepository) Create(ctx context.Context, goal *models.TherapyGoal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	if goal.UpdatedAt.IsZero() {
		goal.UpdatedAt = goal.CreatedAt
	}
	const query = `INSERT INTO therapy_goals (` + goalColumns + `)
VALUES (:id, :patient_id, :therapist_id, :discipline, :title, :description, :baseline, :target,
	:mastery_criteria, :current_progress, :mastery_streak, :status, :mastered_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// GetByID fetches a goal by identifier. sql.ErrNoRows is returned unwrapped.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*models.TherapyGoal, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + goalColumns + ` FROM therapy_goals WHERE id = $1`
	var goal models.TherapyGoal
	if err := r.db.GetContext(ctx, &goal, query, id); err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListByPatient returns every goal of a patient, oldest first.
func (r *GoalRepository) ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error) {
	const query = `SELECT ` + goalColumns + ` FROM therapy_goals WHERE patient_id = $1 ORDER BY created_at ASC`
	var goals []models.TherapyGoal
	if err := r.db.SelectContext(ctx, &goals, query, patientID); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// ApplyMeasurement stores the merged goal state and appends the measurement
// record in one transaction.
func (r *GoalRepository) ApplyMeasurement(ctx context.Context, goal *models.TherapyGoal, record *models.MeasurementRecord) (err error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.GoalID = goal.ID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin measurement transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE therapy_goals SET current_progress = $1, mastery_streak = $2, status = $3, mastered_at = $4, updated_at = $5
WHERE id = $6`
	result, err := tx.ExecContext(ctx, updateQuery,
		goal.CurrentProgress, goal.MasteryStreak, goal.Status, goal.MasteredAt, goal.UpdatedAt, goal.ID)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	if err = expectRows(result, "goal"); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO goal_measurements (id, goal_id, frequency, duration, accuracy, independence, qualifying, recorded_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.ExecContext(ctx, insertQuery, record.ID, record.GoalID, record.Frequency, record.Duration,
		record.Accuracy, record.Independence, record.Qualifying, record.RecordedBy, record.RecordedAt); err != nil {
		return fmt.Errorf("insert goal measurement: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit goal measurement: %w", err)
	}
	return nil
}

// UpdateStatus overrides the goal status. sql.ErrNoRows is returned when the
// goal does not exist.
func (r *GoalRepository) UpdateStatus(ctx context.Context, id string, status models.GoalStatus, updatedAt time.Time) error {
	if !validID(id) {
		return sql.ErrNoRows
	}
	const query = `UPDATE therapy_goals SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	return expectRows(result, "goal")
}

// ListMeasurements returns the newest measurement records of a goal.
func (r *GoalRepository) ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if !validID(goalID) {
		return nil, nil
	}
	const query = `SELECT id, goal_id, frequency, duration, accuracy, independence, qualifying, recorded_by, recorded_at
FROM goal_measurements WHERE goal_id = $1 ORDER BY recorded_at DESC LIMIT $2`
	var records []models.MeasurementRecord
	if err := r.db.SelectContext(ctx, &records, query, goalID, limit); err != nil {
		return nil, fmt.Errorf("list goal measurements: %w", err)
	}
	return records, nil
}
