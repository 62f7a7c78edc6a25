package dto

import "time"

// CreateSessionRequest captures POST /sessions payload.
type CreateSessionRequest struct {
	PatientID       string               `json:"patientId" validate:"required"`
	TherapistID     string               `json:"-"`
	Date            time.Time            `json:"date" validate:"required"`
	DurationMinutes int                  `json:"duration" validate:"gte=0"`
	GoalIDs         []string             `json:"goalIds" validate:"dive,required"`
	TaskIDs         []string             `json:"taskIds" validate:"dive,required"`
	Measurements    []SessionMeasurement `json:"measurements" validate:"dive"`
	Notes           string               `json:"notes" validate:"max=4000"`
}

// SessionMeasurement is one scored activity of a session.
type SessionMeasurement struct {
	GoalID       *string `json:"goalId"`
	Activity     string  `json:"activity" validate:"max=200"`
	Attempts     int     `json:"attempts" validate:"gte=0"`
	Successes    int     `json:"successes" validate:"gte=0,ltefield=Attempts"`
	PromptsGiven int     `json:"promptsGiven" validate:"gte=0"`
	Independence float64 `json:"independence" validate:"gte=0,lte=100"`
	Accuracy     float64 `json:"accuracy" validate:"gte=0,lte=100"`
}
