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

// MaxSessionHistory caps how many sessions a listing returns.
const MaxSessionHistory = 50

const sessionColumns = `id, patient_id, therapist_id, session_date, duration_minutes, goal_ids, task_ids, measurements, notes, created_at`

// SessionRepository persists therapy sessions. Sessions are append-only.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.TherapySession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO therapy_sessions (` + sessionColumns + `)
VALUES (:id, :patient_id, :therapist_id, :session_date, :duration_minutes, :goal_ids, :task_ids, :measurements, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID fetches a session. sql.ErrNoRows is returned unwrapped.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.TherapySession, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + sessionColumns + ` FROM therapy_sessions WHERE id = $1`
	var session models.TherapySession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByPatient returns the most recent sessions of a patient, newest first.
func (r *SessionRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error) {
	if limit <= 0 || limit > MaxSessionHistory {
		limit = MaxSessionHistory
	}
	const query = `SELECT ` + sessionColumns + ` FROM therapy_sessions WHERE patient_id = $1 ORDER BY session_date DESC LIMIT $2`
	var sessions []models.TherapySession
	if err := r.db.SelectContext(ctx, &sessions, query, patientID, limit); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
