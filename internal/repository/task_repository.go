package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

const taskColumns = `id, goal_id, title, description, instructions, difficulty, estimated_duration, progress,
	status, due_date, created_at, updated_at`

// TaskRepository persists therapy tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task row.
func (r *TaskRepository) Create(ctx context.Context, task *models.TherapyTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	const query = `INSERT INTO therapy_tasks (` + taskColumns + `)
VALUES (:id, :goal_id, :title, :description, :instructions, :difficulty, :estimated_duration, :progress,
	:status, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID fetches a task. sql.ErrNoRows is returned unwrapped.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.TherapyTask, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + taskColumns + ` FROM therapy_tasks WHERE id = $1`
	var task models.TherapyTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByGoal returns the tasks attached to a goal.
func (r *TaskRepository) ListByGoal(ctx context.Context, goalID string) ([]models.TherapyTask, error) {
	if !validID(goalID) {
		return nil, nil
	}
	const query = `SELECT ` + taskColumns + ` FROM therapy_tasks WHERE goal_id = $1 ORDER BY created_at ASC`
	var tasks []models.TherapyTask
	if err := r.db.SelectContext(ctx, &tasks, query, goalID); err != nil {
		return nil, fmt.Errorf("list tasks by goal: %w", err)
	}
	return tasks, nil
}

// ListByGoals returns the tasks attached to any of the given goals.
func (r *TaskRepository) ListByGoals(ctx context.Context, goalIDs []string) ([]models.TherapyTask, error) {
	goalIDs = validIDs(goalIDs)
	if len(goalIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + taskColumns + ` FROM therapy_tasks WHERE goal_id = ANY($1) ORDER BY created_at ASC`
	var tasks []models.TherapyTask
	if err := r.db.SelectContext(ctx, &tasks, query, pq.Array(goalIDs)); err != nil {
		return nil, fmt.Errorf("list tasks by goals: %w", err)
	}
	return tasks, nil
}

// Update overwrites the mutable task columns. sql.ErrNoRows is returned when
// the task does not exist.
func (r *TaskRepository) Update(ctx context.Context, task *models.TherapyTask) error {
	if !validID(task.ID) || (task.GoalID != nil && !validID(*task.GoalID)) {
		return sql.ErrNoRows
	}
	const query = `UPDATE therapy_tasks SET goal_id = :goal_id, title = :title, description = :description,
	instructions = :instructions, difficulty = :difficulty, estimated_duration = :estimated_duration,
	progress = :progress, status = :status, due_date = :due_date, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRows(result, "task")
}
