package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// ActivityMeasurement is one scored activity inside a session. A nil GoalID
// applies the measurement to every goal the session addressed.
type ActivityMeasurement struct {
	GoalID       *string `json:"goalId,omitempty"`
	Activity     string  `json:"activity"`
	Attempts     int     `json:"attempts"`
	Successes    int     `json:"successes"`
	PromptsGiven int     `json:"promptsGiven"`
	Independence float64 `json:"independence"`
	Accuracy     float64 `json:"accuracy"`
}

// ActivityMeasurements is persisted as a JSONB array.
type ActivityMeasurements []ActivityMeasurement

// Value marshals the measurements to JSONB.
func (m ActivityMeasurements) Value() (driver.Value, error) {
	if m == nil {
		m = ActivityMeasurements{}
	}
	return jsonValue([]ActivityMeasurement(m), "session measurements")
}

// Scan unmarshals JSONB into the measurements.
func (m *ActivityMeasurements) Scan(value interface{}) error {
	*m = nil
	return jsonScan(value, m, "session measurements")
}

// TherapySession is an immutable record of a therapy appointment.
type TherapySession struct {
	ID              string               `db:"id" json:"id"`
	PatientID       string               `db:"patient_id" json:"patientId"`
	TherapistID     string               `db:"therapist_id" json:"therapistId"`
	SessionDate     time.Time            `db:"session_date" json:"date"`
	DurationMinutes int                  `db:"duration_minutes" json:"duration"`
	GoalIDs         pq.StringArray       `db:"goal_ids" json:"goalIds"`
	TaskIDs         pq.StringArray       `db:"task_ids" json:"taskIds"`
	Measurements    ActivityMeasurements `db:"measurements" json:"measurements"`
	Notes           string               `db:"notes" json:"notes"`
	CreatedAt       time.Time            `db:"created_at" json:"createdAt"`
}

// AddressesGoal reports whether the session worked on goalID.
func (s TherapySession) AddressesGoal(goalID string) bool {
	for _, id := range s.GoalIDs {
		if id == goalID {
			return true
		}
	}
	return false
}
