package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

type profileStore interface {
	Upsert(ctx context.Context, profile *models.PatientProfile) error
	GetByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error)
}

// PatientProfileService stores the skill levels used for task recommendations.
type PatientProfileService struct {
	repo      profileStore
	validator *validator.Validate
	now       func() time.Time
}

func NewPatientProfileService(repo profileStore, validate *validator.Validate) *PatientProfileService {
	if validate == nil {
		validate = validator.New()
	}
	return &PatientProfileService{repo: repo, validator: validate, now: time.Now}
}

// Upsert creates or replaces the profile of a patient.
func (s *PatientProfileService) Upsert(ctx context.Context, patientID string, req dto.UpsertProfileRequest) (*models.PatientProfile, error) {
	if patientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	profile := &models.PatientProfile{
		PatientID:          patientID,
		DisplayName:        req.DisplayName,
		CommunicationLevel: req.CommunicationLevel,
		CognitiveLevel:     req.CognitiveLevel,
		MotorLevel:         req.MotorLevel,
		UpdatedAt:          s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Dependency(err, "failed to save patient profile")
	}
	return profile, nil
}

func (s *PatientProfileService) Get(ctx context.Context, patientID string) (*models.PatientProfile, error) {
	profile, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient profile not found")
		}
		return nil, appErrors.Dependency(err, "failed to load patient profile")
	}
	return profile, nil
}
