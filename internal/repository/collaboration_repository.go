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

const (
	requestColumns      = `id, patient_id, patient_name, therapist_id, therapist_name, message, status, created_at, updated_at`
	relationshipColumns = `id, request_id, therapist_id, therapist_name, patient_id, patient_name, status, created_at`
)

// CollaborationRepository persists collaboration requests and the
// therapist/patient relationships created from them.
type CollaborationRepository struct {
	db *sqlx.DB
}

// NewCollaborationRepository constructs the repository.
func NewCollaborationRepository(db *sqlx.DB) *CollaborationRepository {
	return &CollaborationRepository{db: db}
}

// CreateRequest inserts a request row.
func (r *CollaborationRepository) CreateRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}
	const query = `INSERT INTO collaboration_requests (` + requestColumns + `)
VALUES (:id, :patient_id, :patient_name, :therapist_id, :therapist_name, :message, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create collaboration request: %w", err)
	}
	return nil
}

// GetRequest fetches a request. sql.ErrNoRows is returned unwrapped.
func (r *CollaborationRepository) GetRequest(ctx context.Context, id string) (*models.CollaborationRequest, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + requestColumns + ` FROM collaboration_requests WHERE id = $1`
	var req models.CollaborationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPendingRequest reports whether a pending request exists for the pair.
func (r *CollaborationRepository) HasPendingRequest(ctx context.Context, patientID, therapistID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM collaboration_requests WHERE patient_id = $1 AND therapist_id = $2 AND status = 'pending')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, patientID, therapistID); err != nil {
		return false, fmt.Errorf("check pending collaboration request: %w", err)
	}
	return exists, nil
}

// HasActiveRelationship reports whether the pair is already linked.
func (r *CollaborationRepository) HasActiveRelationship(ctx context.Context, therapistID, patientID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM therapist_patient_relationships WHERE therapist_id = $1 AND patient_id = $2 AND status = 'active')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, therapistID, patientID); err != nil {
		return false, fmt.Errorf("check active relationship: %w", err)
	}
	return exists, nil
}

// ListRequests returns requests for a therapist or patient, newest first. An
// empty status lists every state.
func (r *CollaborationRepository) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.CollaborationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM collaboration_requests WHERE `
	var args []interface{}
	switch {
	case filter.TherapistID != "":
		query += "therapist_id = $1"
		args = append(args, filter.TherapistID)
	case filter.PatientID != "":
		query += "patient_id = $1"
		args = append(args, filter.PatientID)
	default:
		return nil, fmt.Errorf("list collaboration requests: therapist or patient required")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var requests []models.CollaborationRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list collaboration requests: %w", err)
	}
	return requests, nil
}

// ListRelationships returns the active relationships of a therapist.
func (r *CollaborationRepository) ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error) {
	const query = `SELECT ` + relationshipColumns + ` FROM therapist_patient_relationships
WHERE therapist_id = $1 AND status = 'active' ORDER BY created_at DESC`
	var relationships []models.TherapistPatientRelationship
	if err := r.db.SelectContext(ctx, &relationships, query, therapistID); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return relationships, nil
}

// Decline moves a pending request to declined. sql.ErrNoRows is returned when
// the request is missing or no longer pending.
func (r *CollaborationRepository) Decline(ctx context.Context, id string, updatedAt time.Time) error {
	if !validID(id) {
		return sql.ErrNoRows
	}
	const query = `UPDATE collaboration_requests SET status = 'declined', updated_at = $1 WHERE id = $2 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("decline collaboration request: %w", err)
	}
	return expectRows(result, "collaboration request")
}

// Accept marks a pending request accepted and inserts the relationship in a
// single transaction. sql.ErrNoRows is returned when the request was no longer
// pending; any other failure rolls both writes back.
func (r *CollaborationRepository) Accept(ctx context.Context, requestID string, updatedAt time.Time, rel *models.TherapistPatientRelationship) (err error) {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = updatedAt
	}
	rel.RequestID = &requestID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE collaboration_requests SET status = 'accepted', updated_at = $1 WHERE id = $2 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, updateQuery, updatedAt, requestID)
	if err != nil {
		return fmt.Errorf("accept collaboration request: %w", err)
	}
	if err = expectRows(result, "collaboration request"); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO therapist_patient_relationships (` + relationshipColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.ExecContext(ctx, insertQuery, rel.ID, rel.RequestID, rel.TherapistID, rel.TherapistName,
		rel.PatientID, rel.PatientName, rel.Status, rel.CreatedAt); err != nil {
		return fmt.Errorf("create relationship: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit accept transaction: %w", err)
	}
	return nil
}
