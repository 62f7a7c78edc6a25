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

type taskStore interface {
	Create(ctx context.Context, task *models.TherapyTask) error
	GetByID(ctx context.Context, id string) (*models.TherapyTask, error)
	ListByGoal(ctx context.Context, goalID string) ([]models.TherapyTask, error)
	ListByGoals(ctx context.Context, goalIDs []string) ([]models.TherapyTask, error)
	Update(ctx context.Context, task *models.TherapyTask) error
}

type goalReader interface {
	GetByID(ctx context.Context, id string) (*models.TherapyGoal, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error)
}

type profileReader interface {
	GetByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error)
}

// TaskService manages therapy tasks and task recommendations.
type TaskService struct {
	repo      taskStore
	goals     goalReader
	profiles  profileReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskStore, goals goalReader, profiles profileReader, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, goals: goals, profiles: profiles, validator: validate, logger: logger, now: time.Now}
}

// Create stores a new assigned task.
func (s *TaskService) Create(ctx context.Context, req dto.CreateTaskRequest) (*models.TherapyTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if req.GoalID != nil {
		if err := s.ensureGoal(ctx, *req.GoalID); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	task := &models.TherapyTask{
		GoalID:            req.GoalID,
		Title:             req.Title,
		Description:       req.Description,
		Instructions:      req.Instructions,
		Difficulty:        req.Difficulty,
		EstimatedDuration: req.EstimatedDuration,
		Progress:          0,
		Status:            models.TaskStatusAssigned,
		DueDate:           req.DueDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Dependency(err, "failed to create task")
	}
	return task, nil
}

// Get returns a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.TherapyTask, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Dependency(err, "failed to load task")
	}
	return task, nil
}

// ListByGoal returns the tasks attached to a goal.
func (s *TaskService) ListByGoal(ctx context.Context, goalID string) ([]models.TherapyTask, error) {
	tasks, err := s.repo.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list tasks")
	}
	return tasks, nil
}

// UpdateProgress clamps progress into [0,100] and keeps the current status
// when none is given.
func (s *TaskService) UpdateProgress(ctx context.Context, taskID string, progress float64, status *models.TaskStatus) (*models.TherapyTask, error) {
	if status != nil && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown task status")
	}
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Progress = clampPercent(progress)
	if status != nil {
		task.Status = *status
	}
	task.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Edit applies a raw field patch to a task.
func (s *TaskService) Edit(ctx context.Context, taskID string, patch dto.TaskPatch) (*models.TherapyTask, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	result, err := applyTaskPatch(task, patch)
	if err != nil {
		return nil, err
	}
	if result.goalChanged && task.GoalID != nil {
		if err := s.ensureGoal(ctx, *task.GoalID); err != nil {
			return nil, err
		}
	}
	task.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Recommended returns the tasks suited to a patient for one discipline: the
// owning goal must belong to the patient, match the discipline and be
// active, and the task difficulty must not exceed any of the patient's
// communication, cognitive or motor levels.
func (s *TaskService) Recommended(ctx context.Context, query dto.RecommendedTasksQuery) ([]models.TherapyTask, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation query")
	}
	profile, err := s.profiles.GetByPatientID(ctx, query.PatientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "patient profile not found")
		}
		return nil, appErrors.Dependency(err, "failed to load patient profile")
	}
	goals, err := s.goals.ListByPatient(ctx, query.PatientID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list goals")
	}
	goalIDs := make([]string, 0, len(goals))
	for _, g := range goals {
		if g.PatientID == query.PatientID && g.Discipline == query.Discipline && g.Status == models.GoalStatusActive {
			goalIDs = append(goalIDs, g.ID)
		}
	}
	if len(goalIDs) == 0 {
		return []models.TherapyTask{}, nil
	}
	tasks, err := s.repo.ListByGoals(ctx, goalIDs)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list tasks")
	}
	recommended := make([]models.TherapyTask, 0, len(tasks))
	for _, task := range tasks {
		if suitsProfile(task.Difficulty, profile) {
			recommended = append(recommended, task)
		}
	}
	return recommended, nil
}

func suitsProfile(difficulty models.Difficulty, profile *models.PatientProfile) bool {
	rank := difficulty.Rank()
	communication := rank <= profile.CommunicationLevel.Rank()
	cognitive := rank <= profile.CognitiveLevel.Rank()
	motor := rank <= profile.MotorLevel.Rank()
	return communication && cognitive && motor
}

func (s *TaskService) ensureGoal(ctx context.Context, goalID string) error {
	if _, err := s.goals.GetByID(ctx, goalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return appErrors.Dependency(err, "failed to load goal")
	}
	return nil
}

func (s *TaskService) save(ctx context.Context, task *models.TherapyTask) error {
	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Dependency(err, "failed to update task")
	}
	return nil
}
