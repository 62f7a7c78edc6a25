package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

type collaborationStore interface {
	CreateRequest(ctx context.Context, req *models.CollaborationRequest) error
	GetRequest(ctx context.Context, id string) (*models.CollaborationRequest, error)
	HasPendingRequest(ctx context.Context, patientID, therapistID string) (bool, error)
	HasActiveRelationship(ctx context.Context, therapistID, patientID string) (bool, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.CollaborationRequest, error)
	ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error)
	Decline(ctx context.Context, id string, updatedAt time.Time) error
	Accept(ctx context.Context, requestID string, updatedAt time.Time, rel *models.TherapistPatientRelationship) error
}

// CollaborationService runs the patient to therapist request workflow.
type CollaborationService struct {
	repo      collaborationStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewCollaborationService constructs a CollaborationService.
func NewCollaborationService(repo collaborationStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *CollaborationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollaborationService{repo: repo, validator: validate, metrics: metrics, logger: logger, now: time.Now}
}

// CreateRequest opens a pending request. A second pending request for the
// same pair, or a pair that already works together, is rejected.
func (s *CollaborationService) CreateRequest(ctx context.Context, req dto.CreateCollaborationRequest) (*models.CollaborationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collaboration request")
	}
	pending, err := s.repo.HasPendingRequest(ctx, req.PatientID, req.TherapistID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "a pending request already exists for this therapist")
	}
	active, err := s.repo.HasActiveRelationship(ctx, req.TherapistID, req.PatientID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to check relationships")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "therapist already works with this patient")
	}

	now := s.now().UTC()
	request := &models.CollaborationRequest{
		PatientID:     req.PatientID,
		PatientName:   req.PatientName,
		TherapistID:   req.TherapistID,
		TherapistName: req.TherapistName,
		Message:       req.Message,
		Status:        models.RequestStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, appErrors.Dependency(err, "failed to create collaboration request")
	}
	return request, nil
}

// Accept moves a pending request to accepted and links therapist and patient.
// Both writes share one transaction.
func (s *CollaborationService) Accept(ctx context.Context, requestID string, actor *models.JWTClaims) (*dto.AcceptResponse, error) {
	request, err := s.pendingForActor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rel := &models.TherapistPatientRelationship{
		TherapistID:   request.TherapistID,
		TherapistName: request.TherapistName,
		PatientID:     request.PatientID,
		PatientName:   request.PatientName,
		Status:        models.RelationshipActive,
		CreatedAt:     now,
	}
	if err := s.repo.Accept(ctx, request.ID, now, rel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "collaboration request is no longer pending")
		}
		s.logger.Error("collaboration accept rolled back",
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
		return nil, appErrors.Dependency(err, "failed to accept collaboration request")
	}

	request.Status = models.RequestStatusAccepted
	request.UpdatedAt = now
	s.metrics.RecordCollaborationDecision(string(models.RequestStatusAccepted))
	s.logger.Info("collaboration request accepted",
		zap.String("request_id", request.ID),
		zap.String("therapist_id", request.TherapistID),
		zap.String("patient_id", request.PatientID),
	)
	return &dto.AcceptResponse{Request: request, Relationship: rel}, nil
}

// Decline moves a pending request to declined.
func (s *CollaborationService) Decline(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.CollaborationRequest, error) {
	request, err := s.pendingForActor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.Decline(ctx, request.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "collaboration request is no longer pending")
		}
		return nil, appErrors.Dependency(err, "failed to decline collaboration request")
	}
	request.Status = models.RequestStatusDeclined
	request.UpdatedAt = now
	s.metrics.RecordCollaborationDecision(string(models.RequestStatusDeclined))
	return request, nil
}

// ListForTherapist returns the requests addressed to a therapist, optionally
// filtered by status.
func (s *CollaborationService) ListForTherapist(ctx context.Context, therapistID string, status models.RequestStatus) ([]models.CollaborationRequest, error) {
	if therapistID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "therapistId is required")
	}
	return s.list(ctx, models.RequestFilter{TherapistID: therapistID, Status: status})
}

// ListForPatient returns the requests a patient has sent.
func (s *CollaborationService) ListForPatient(ctx context.Context, patientID string, status models.RequestStatus) ([]models.CollaborationRequest, error) {
	if patientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required")
	}
	return s.list(ctx, models.RequestFilter{PatientID: patientID, Status: status})
}

// ListRelationships returns the relationships of a therapist.
func (s *CollaborationService) ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error) {
	rels, err := s.repo.ListRelationships(ctx, therapistID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list relationships")
	}
	return rels, nil
}

func (s *CollaborationService) list(ctx context.Context, filter models.RequestFilter) ([]models.CollaborationRequest, error) {
	switch filter.Status {
	case "", models.RequestStatusPending, models.RequestStatusAccepted, models.RequestStatusDeclined:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown request status")
	}
	requests, err := s.repo.ListRequests(ctx, filter)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list collaboration requests")
	}
	return requests, nil
}

func (s *CollaborationService) pendingForActor(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.CollaborationRequest, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collaboration request not found")
		}
		return nil, appErrors.Dependency(err, "failed to load collaboration request")
	}
	if actor == nil || (actor.Role != models.RoleAdmin && actor.UserID != request.TherapistID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the addressed therapist can answer this request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "collaboration request is not pending")
	}
	return request, nil
}
