package models

import "time"

// PatientProfile holds the skill levels used to match task difficulty.
type PatientProfile struct {
	PatientID          string     `db:"patient_id" json:"patientId"`
	DisplayName        string     `db:"display_name" json:"displayName"`
	CommunicationLevel Difficulty `db:"communication_level" json:"communicationLevel"`
	CognitiveLevel     Difficulty `db:"cognitive_level" json:"cognitiveLevel"`
	MotorLevel         Difficulty `db:"motor_level" json:"motorLevel"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}
