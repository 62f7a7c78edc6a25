package models

import (
	"database/sql/driver"
	"time"
)

// Discipline enumerates the therapy disciplines a goal can belong to.
type Discipline string

const (
	DisciplineBehavioral   Discipline = "behavioral"
	DisciplineSpeech       Discipline = "speech"
	DisciplineOccupational Discipline = "occupational"
)

// Valid reports whether d is a known discipline.
func (d Discipline) Valid() bool {
	switch d {
	case DisciplineBehavioral, DisciplineSpeech, DisciplineOccupational:
		return true
	}
	return false
}

// GoalStatus captures goal lifecycle states.
type GoalStatus string

const (
	GoalStatusActive       GoalStatus = "active"
	GoalStatusMastered     GoalStatus = "mastered"
	GoalStatusPaused       GoalStatus = "paused"
	GoalStatusDiscontinued GoalStatus = "discontinued"
)

// BaselineData is the snapshot captured when the goal was set.
type BaselineData struct {
	Frequency    float64   `json:"frequency"`
	Duration     *float64  `json:"duration,omitempty"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Independence *float64  `json:"independence,omitempty"`
	CapturedAt   time.Time `json:"capturedAt"`
}

// Value marshals the baseline to JSONB.
func (b BaselineData) Value() (driver.Value, error) { return jsonValue(b, "baseline") }

// Scan unmarshals JSONB into the baseline.
func (b *BaselineData) Scan(value interface{}) error {
	*b = BaselineData{}
	return jsonScan(value, b, "baseline")
}

// TargetData is the snapshot the goal aims for within TimeframeDays.
type TargetData struct {
	Frequency     float64  `json:"frequency"`
	Duration      *float64 `json:"duration,omitempty"`
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Independence  *float64 `json:"independence,omitempty"`
	TimeframeDays int      `json:"timeframeDays"`
}

// Value marshals the target to JSONB.
func (t TargetData) Value() (driver.Value, error) { return jsonValue(t, "target") }

// Scan unmarshals JSONB into the target.
func (t *TargetData) Scan(value interface{}) error {
	*t = TargetData{}
	return jsonScan(value, t, "target")
}

// MasteryCriteria defines the thresholds a goal must hold to be mastered.
type MasteryCriteria struct {
	ConsecutiveDays       int     `json:"consecutiveDays"`
	AccuracyThreshold     float64 `json:"accuracyThreshold"`
	IndependenceThreshold float64 `json:"independenceThreshold"`
}

// Value marshals the criteria to JSONB.
func (m MasteryCriteria) Value() (driver.Value, error) { return jsonValue(m, "mastery criteria") }

// Scan unmarshals JSONB into the criteria.
func (m *MasteryCriteria) Scan(value interface{}) error {
	*m = MasteryCriteria{}
	return jsonScan(value, m, "mastery criteria")
}

// CurrentProgress is the merged state of every measurement applied so far.
type CurrentProgress struct {
	Frequency    float64   `json:"frequency"`
	Duration     *float64  `json:"duration,omitempty"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Independence *float64  `json:"independence,omitempty"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Value marshals the progress to JSONB.
func (c CurrentProgress) Value() (driver.Value, error) { return jsonValue(c, "current progress") }

// Scan unmarshals JSONB into the progress.
func (c *CurrentProgress) Scan(value interface{}) error {
	*c = CurrentProgress{}
	return jsonScan(value, c, "current progress")
}

// TherapyGoal is a patient goal tracked by a therapist.
type TherapyGoal struct {
	ID              string          `db:"id" json:"id"`
	PatientID       string          `db:"patient_id" json:"patientId"`
	TherapistID     string          `db:"therapist_id" json:"therapistId"`
	Discipline      Discipline      `db:"discipline" json:"discipline"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Baseline        BaselineData    `db:"baseline" json:"baselineData"`
	Target          TargetData      `db:"target" json:"targetData"`
	MasteryCriteria MasteryCriteria `db:"mastery_criteria" json:"masteryCriteria"`
	CurrentProgress CurrentProgress `db:"current_progress" json:"currentProgress"`
	MasteryStreak   int             `db:"mastery_streak" json:"masteryStreak"`
	Status          GoalStatus      `db:"status" json:"status"`
	MasteredAt      *time.Time      `db:"mastered_at" json:"masteredAt,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// ProgressSnapshot is a partial measurement. Nil fields leave the current
// value untouched.
type ProgressSnapshot struct {
	Frequency    *float64 `json:"frequency,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	Independence *float64 `json:"independence,omitempty"`
}

// Empty reports whether no field is set.
func (p ProgressSnapshot) Empty() bool {
	return p.Frequency == nil && p.Duration == nil && p.Accuracy == nil && p.Independence == nil
}

// MeasurementRecord is the immutable log entry written for every applied
// measurement.
type MeasurementRecord struct {
	ID           string    `db:"id" json:"id"`
	GoalID       string    `db:"goal_id" json:"goalId"`
	Frequency    *float64  `db:"frequency" json:"frequency,omitempty"`
	Duration     *float64  `db:"duration" json:"duration,omitempty"`
	Accuracy     *float64  `db:"accuracy" json:"accuracy,omitempty"`
	Independence *float64  `db:"independence" json:"independence,omitempty"`
	Qualifying   bool      `db:"qualifying" json:"qualifying"`
	RecordedBy   string    `db:"recorded_by" json:"recordedBy"`
	RecordedAt   time.Time `db:"recorded_at" json:"recordedAt"`
}
