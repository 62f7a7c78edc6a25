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

type goalStore interface {
	Create(ctx context.Context, goal *models.TherapyGoal) error
	GetByID(ctx context.Context, id string) (*models.TherapyGoal, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error)
	ApplyMeasurement(ctx context.Context, goal *models.TherapyGoal, record *models.MeasurementRecord) error
	UpdateStatus(ctx context.Context, id string, status models.GoalStatus, updatedAt time.Time) error
	ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error)
}

// GoalServiceConfig tunes mastery evaluation.
type GoalServiceConfig struct {
	// EnforceMasteryStreak requires MasteryCriteria.ConsecutiveDays qualifying
	// updates in a row. When false a single qualifying snapshot is enough.
	EnforceMasteryStreak bool
}

// GoalService owns therapy goals: creation, measurements and status overrides.
type GoalService struct {
	repo      goalStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       GoalServiceConfig
	now       func() time.Time
}

// NewGoalService constructs a GoalService.
func NewGoalService(repo goalStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg GoalServiceConfig) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalService{repo: repo, validator: validate, metrics: metrics, logger: logger, cfg: cfg, now: time.Now}
}

// Create stores a new active goal whose current progress starts at the baseline.
func (s *GoalService) Create(ctx context.Context, req dto.CreateGoalRequest) (*models.TherapyGoal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	if req.TherapistID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "therapistId is required")
	}
	now := s.now().UTC()
	capturedAt := now
	if req.Baseline.CapturedAt != nil {
		capturedAt = req.Baseline.CapturedAt.UTC()
	}
	goal := &models.TherapyGoal{
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		Discipline:  req.Discipline,
		Title:       req.Title,
		Description: req.Description,
		Baseline: models.BaselineData{
			Frequency:    req.Baseline.Frequency,
			Duration:     copyFloat(req.Baseline.Duration),
			Accuracy:     copyFloat(req.Baseline.Accuracy),
			Independence: copyFloat(req.Baseline.Independence),
			CapturedAt:   capturedAt,
		},
		Target: models.TargetData{
			Frequency:     req.Target.Frequency,
			Duration:      copyFloat(req.Target.Duration),
			Accuracy:      copyFloat(req.Target.Accuracy),
			Independence:  copyFloat(req.Target.Independence),
			TimeframeDays: req.Target.TimeframeDays,
		},
		MasteryCriteria: models.MasteryCriteria{
			ConsecutiveDays:       req.MasteryCriteria.ConsecutiveDays,
			AccuracyThreshold:     req.MasteryCriteria.AccuracyThreshold,
			IndependenceThreshold: req.MasteryCriteria.IndependenceThreshold,
		},
		CurrentProgress: models.CurrentProgress{
			Frequency:    req.Baseline.Frequency,
			Duration:     copyFloat(req.Baseline.Duration),
			Accuracy:     copyFloat(req.Baseline.Accuracy),
			Independence: copyFloat(req.Baseline.Independence),
			LastUpdated:  now,
		},
		Status:    models.GoalStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, appErrors.Dependency(err, "failed to create goal")
	}
	return goal, nil
}

// Get returns a goal by id.
func (s *GoalService) Get(ctx context.Context, id string) (*models.TherapyGoal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Dependency(err, "failed to load goal")
	}
	return goal, nil
}

// GetWithProgress returns a goal together with its progress percentage.
func (s *GoalService) GetWithProgress(ctx context.Context, id string) (*dto.GoalProgressResponse, error) {
	goal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.GoalProgressResponse{Goal: goal, Progress: goalProgress(goal)}, nil
}

// ListByPatient returns every goal of a patient.
func (s *GoalService) ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error) {
	if patientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required")
	}
	goals, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list goals")
	}
	return goals, nil
}

// ListMeasurements returns the newest measurement records of a goal.
func (s *GoalService) ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error) {
	if _, err := s.Get(ctx, goalID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListMeasurements(ctx, goalID, limit)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list measurements")
	}
	return records, nil
}

// ApplyMeasurement merges a partial snapshot into the goal's current progress,
// stamps lastUpdated and re-evaluates mastery. Mastered goals stay mastered.
func (s *GoalService) ApplyMeasurement(ctx context.Context, goalID string, snapshot models.ProgressSnapshot, actorID string) (*models.TherapyGoal, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == models.GoalStatusDiscontinued {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "goal is discontinued")
	}

	stamp := nextTimestamp(goal.CurrentProgress.LastUpdated, s.now().UTC())
	goal.CurrentProgress = mergeSnapshot(goal.CurrentProgress, snapshot, stamp)
	goal.UpdatedAt = stamp

	qualifies := meetsMastery(goal.MasteryCriteria, goal.Target, goal.CurrentProgress)
	if qualifies {
		goal.MasteryStreak++
	} else {
		goal.MasteryStreak = 0
	}

	masteredNow := false
	if goal.Status == models.GoalStatusActive && qualifies && goal.MasteryStreak >= s.requiredStreak(goal.MasteryCriteria) {
		goal.Status = models.GoalStatusMastered
		masteredAt := stamp
		goal.MasteredAt = &masteredAt
		masteredNow = true
	}

	record := &models.MeasurementRecord{
		GoalID:       goal.ID,
		Frequency:    copyFloat(snapshot.Frequency),
		Duration:     copyFloat(snapshot.Duration),
		Accuracy:     copyFloat(snapshot.Accuracy),
		Independence: copyFloat(snapshot.Independence),
		Qualifying:   qualifies,
		RecordedBy:   actorID,
		RecordedAt:   stamp,
	}
	if err := s.repo.ApplyMeasurement(ctx, goal, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Dependency(err, "failed to store measurement")
	}

	s.metrics.RecordMeasurement(string(goal.Discipline), masteredNow)
	if masteredNow {
		s.logger.Info("goal mastered",
			zap.String("goal_id", goal.ID),
			zap.String("patient_id", goal.PatientID),
			zap.Int("streak", goal.MasteryStreak),
		)
	}
	return goal, nil
}

// SetStatus applies an explicit status override. Goals can always be paused
// or discontinued unless already discontinued; only paused goals resume, and
// a goal that had been mastered resumes as mastered. Mastered can never be
// set directly.
func (s *GoalService) SetStatus(ctx context.Context, goalID string, status models.GoalStatus) (*models.TherapyGoal, error) {
	goal, err := s.Get(ctx, goalID)
	if err != nil {
		return nil, err
	}

	next, err := nextGoalStatus(goal, status)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, goal.ID, next, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Dependency(err, "failed to update goal status")
	}
	s.logger.Info("goal status changed",
		zap.String("goal_id", goal.ID),
		zap.String("from", string(goal.Status)),
		zap.String("to", string(next)),
	)
	goal.Status = next
	goal.UpdatedAt = now
	return goal, nil
}

func nextGoalStatus(goal *models.TherapyGoal, requested models.GoalStatus) (models.GoalStatus, error) {
	current := goal.Status
	switch requested {
	case models.GoalStatusPaused, models.GoalStatusDiscontinued:
		if current == models.GoalStatusDiscontinued {
			return "", appErrors.Clone(appErrors.ErrInvalidState, "goal is discontinued")
		}
		if current == requested {
			return "", appErrors.Clone(appErrors.ErrInvalidState, "goal is already "+string(current))
		}
		return requested, nil
	case models.GoalStatusActive:
		if current != models.GoalStatusPaused {
			return "", appErrors.Clone(appErrors.ErrInvalidState, "only paused goals can be resumed")
		}
		if goal.MasteredAt != nil {
			return models.GoalStatusMastered, nil
		}
		return models.GoalStatusActive, nil
	case models.GoalStatusMastered:
		return "", appErrors.Clone(appErrors.ErrInvalidState, "mastered status is reached through measurements only")
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown goal status")
	}
}

func (s *GoalService) requiredStreak(criteria models.MasteryCriteria) int {
	if !s.cfg.EnforceMasteryStreak || criteria.ConsecutiveDays < 1 {
		return 1
	}
	return criteria.ConsecutiveDays
}
