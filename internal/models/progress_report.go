package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// Trend classifies the direction of a goal over the report window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// MasteryStatus is the per-goal status shown on a report.
type MasteryStatus string

const (
	MasteryNotStarted MasteryStatus = "not_started"
	MasteryInProgress MasteryStatus = "in_progress"
	MasteryMastered   MasteryStatus = "mastered"
	MasteryRegressed  MasteryStatus = "regressed"
)

// GoalProgress is one row of a progress report.
type GoalProgress struct {
	GoalID        string        `json:"goalId"`
	Title         string        `json:"title"`
	Progress      float64       `json:"progress"`
	MasteryStatus MasteryStatus `json:"masteryStatus"`
	DataPoints    int           `json:"dataPoints"`
	Trend         Trend         `json:"trend"`
}

// GoalProgressList is persisted as a JSONB array.
type GoalProgressList []GoalProgress

// Value marshals the rows to JSONB.
func (l GoalProgressList) Value() (driver.Value, error) {
	if l == nil {
		l = GoalProgressList{}
	}
	return jsonValue([]GoalProgress(l), "report goals")
}

// Scan unmarshals JSONB into the rows.
func (l *GoalProgressList) Scan(value interface{}) error {
	*l = nil
	return jsonScan(value, l, "report goals")
}

// Find returns the row for goalID.
func (l GoalProgressList) Find(goalID string) (GoalProgress, bool) {
	for _, g := range l {
		if g.GoalID == goalID {
			return g, true
		}
	}
	return GoalProgress{}, false
}

// ProgressReport is an immutable audit record of a generated report.
type ProgressReport struct {
	ID              string           `db:"id" json:"id"`
	PatientID       string           `db:"patient_id" json:"patientId"`
	TherapistID     string           `db:"therapist_id" json:"therapistId"`
	StartDate       time.Time        `db:"start_date" json:"startDate"`
	EndDate         time.Time        `db:"end_date" json:"endDate"`
	Goals           GoalProgressList `db:"goals" json:"goals"`
	Summary         string           `db:"summary" json:"summary"`
	Recommendations pq.StringArray   `db:"recommendations" json:"recommendations"`
	NextSteps       pq.StringArray   `db:"next_steps" json:"nextSteps"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
}
