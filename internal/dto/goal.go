package dto

import (
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

// CreateGoalRequest captures POST /goals payload.
type CreateGoalRequest struct {
	PatientID       string             `json:"patientId" validate:"required"`
	TherapistID     string             `json:"-"`
	Discipline      models.Discipline  `json:"discipline" validate:"required,oneof=behavioral speech occupational"`
	Title           string             `json:"title" validate:"required,max=200"`
	Description     string             `json:"description" validate:"max=2000"`
	Baseline        BaselineInput      `json:"baselineData"`
	Target          TargetInput        `json:"targetData"`
	MasteryCriteria MasteryCriteriaDTO `json:"masteryCriteria"`
}

// BaselineInput is the starting snapshot of a goal.
type BaselineInput struct {
	Frequency    float64    `json:"frequency" validate:"gte=0"`
	Duration     *float64   `json:"duration" validate:"omitempty,gte=0"`
	Accuracy     *float64   `json:"accuracy" validate:"omitempty,gte=0,lte=100"`
	Independence *float64   `json:"independence" validate:"omitempty,gte=0,lte=100"`
	CapturedAt   *time.Time `json:"date"`
}

// TargetInput is the snapshot a goal aims for.
type TargetInput struct {
	Frequency     float64  `json:"frequency" validate:"gte=0"`
	Duration      *float64 `json:"duration" validate:"omitempty,gte=0"`
	Accuracy      *float64 `json:"accuracy" validate:"omitempty,gte=0,lte=100"`
	Independence  *float64 `json:"independence" validate:"omitempty,gte=0,lte=100"`
	TimeframeDays int      `json:"timeframe" validate:"gte=0"`
}

// MasteryCriteriaDTO mirrors models.MasteryCriteria with validation rules.
type MasteryCriteriaDTO struct {
	ConsecutiveDays       int     `json:"consecutiveDays" validate:"gte=0"`
	AccuracyThreshold     float64 `json:"accuracyThreshold" validate:"gte=0,lte=100"`
	IndependenceThreshold float64 `json:"independenceThreshold" validate:"gte=0,lte=100"`
}

// MeasurementRequest captures POST /goals/:id/measurements payload.
type MeasurementRequest struct {
	Frequency    *float64 `json:"frequency" validate:"omitempty,gte=0"`
	Duration     *float64 `json:"duration" validate:"omitempty,gte=0"`
	Accuracy     *float64 `json:"accuracy" validate:"omitempty,gte=0,lte=100"`
	Independence *float64 `json:"independence" validate:"omitempty,gte=0,lte=100"`
}

// Snapshot converts the payload into a partial progress snapshot.
func (r MeasurementRequest) Snapshot() models.ProgressSnapshot {
	return models.ProgressSnapshot{
		Frequency:    r.Frequency,
		Duration:     r.Duration,
		Accuracy:     r.Accuracy,
		Independence: r.Independence,
	}
}

// GoalStatusRequest captures PATCH /goals/:id/status payload.
type GoalStatusRequest struct {
	Status models.GoalStatus `json:"status" validate:"required"`
}

// GoalProgressResponse pairs a goal with its progress percentage.
type GoalProgressResponse struct {
	Goal     *models.TherapyGoal `json:"goal"`
	Progress float64             `json:"progress"`
}
