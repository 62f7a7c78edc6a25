package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

// CreateTaskRequest captures POST /tasks payload.
type CreateTaskRequest struct {
	GoalID            *string           `json:"goalId"`
	Title             string            `json:"title" validate:"required,max=200"`
	Description       string            `json:"description" validate:"max=2000"`
	Instructions      string            `json:"instructions" validate:"max=4000"`
	Difficulty        models.Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	EstimatedDuration int               `json:"estimatedDuration" validate:"gte=0"`
	DueDate           *time.Time        `json:"dueDate"`
}

// TaskProgressRequest captures PATCH /tasks/:id/progress payload. Progress is
// clamped rather than validated.
type TaskProgressRequest struct {
	Progress float64            `json:"progress"`
	Status   *models.TaskStatus `json:"status"`
}

// TaskPatch is a raw field patch for PATCH /tasks/:id.
type TaskPatch map[string]json.RawMessage

// RecommendedTasksQuery mirrors GET /patients/:id/recommended-tasks filters.
type RecommendedTasksQuery struct {
	PatientID  string            `validate:"required"`
	Discipline models.Discipline `validate:"required,oneof=behavioral speech occupational"`
}

// UpsertProfileRequest captures PUT /patients/:id/profile payload.
type UpsertProfileRequest struct {
	DisplayName        string            `json:"displayName" validate:"max=200"`
	CommunicationLevel models.Difficulty `json:"communicationLevel" validate:"required,oneof=beginner intermediate advanced"`
	CognitiveLevel     models.Difficulty `json:"cognitiveLevel" validate:"required,oneof=beginner intermediate advanced"`
	MotorLevel         models.Difficulty `json:"motorLevel" validate:"required,oneof=beginner intermediate advanced"`
}
