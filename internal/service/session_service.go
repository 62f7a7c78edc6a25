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

type sessionStore interface {
	Create(ctx context.Context, session *models.TherapySession) error
	GetByID(ctx context.Context, id string) (*models.TherapySession, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error)
}

// SessionService records therapy sessions. Sessions are never edited once
// stored.
type SessionService struct {
	repo      sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	limit     int
	now       func() time.Time
}

// NewSessionService constructs a SessionService. limit bounds history listings.
func NewSessionService(repo sessionStore, validate *validator.Validate, logger *zap.Logger, limit int) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, validator: validate, logger: logger, limit: limit, now: time.Now}
}

// Create validates and stores a session record.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.TherapySession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if req.TherapistID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "therapistId is required")
	}

	measurements := make(models.ActivityMeasurements, 0, len(req.Measurements))
	for _, m := range req.Measurements {
		if m.GoalID != nil && !containsString(req.GoalIDs, *m.GoalID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "measurement references a goal the session did not address")
		}
		measurements = append(measurements, models.ActivityMeasurement{
			GoalID:       m.GoalID,
			Activity:     m.Activity,
			Attempts:     m.Attempts,
			Successes:    m.Successes,
			PromptsGiven: m.PromptsGiven,
			Independence: m.Independence,
			Accuracy:     m.Accuracy,
		})
	}

	session := &models.TherapySession{
		PatientID:       req.PatientID,
		TherapistID:     req.TherapistID,
		SessionDate:     req.Date.UTC(),
		DurationMinutes: req.DurationMinutes,
		GoalIDs:         append([]string{}, req.GoalIDs...),
		TaskIDs:         append([]string{}, req.TaskIDs...),
		Measurements:    measurements,
		Notes:           req.Notes,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Dependency(err, "failed to record session")
	}
	s.logger.Debug("session recorded",
		zap.String("session_id", session.ID),
		zap.String("patient_id", session.PatientID),
		zap.Int("measurements", len(measurements)),
	)
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*models.TherapySession, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Dependency(err, "failed to load session")
	}
	return session, nil
}

// ListByPatient returns the newest sessions first. A non-positive or
// oversized limit falls back to the configured history size.
func (s *SessionService) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error) {
	if patientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required")
	}
	if limit <= 0 || (s.limit > 0 && limit > s.limit) {
		limit = s.limit
	}
	sessions, err := s.repo.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list sessions")
	}
	return sessions, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
