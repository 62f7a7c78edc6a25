package models

import "time"

// RequestStatus captures collaboration request states. Accepted and declined
// are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// CollaborationRequest asks a therapist to take on a patient.
type CollaborationRequest struct {
	ID            string        `db:"id" json:"id"`
	PatientID     string        `db:"patient_id" json:"patientId"`
	PatientName   string        `db:"patient_name" json:"patientName"`
	TherapistID   string        `db:"therapist_id" json:"therapistId"`
	TherapistName string        `db:"therapist_name" json:"therapistName"`
	Message       string        `db:"message" json:"message"`
	Status        RequestStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// RelationshipStatus captures therapist/patient link states.
type RelationshipStatus string

const (
	RelationshipActive   RelationshipStatus = "active"
	RelationshipInactive RelationshipStatus = "inactive"
)

// TherapistPatientRelationship links a therapist and patient once a request
// has been accepted.
type TherapistPatientRelationship struct {
	ID            string             `db:"id" json:"id"`
	RequestID     *string            `db:"request_id" json:"requestId,omitempty"`
	TherapistID   string             `db:"therapist_id" json:"therapistId"`
	TherapistName string             `db:"therapist_name" json:"therapistName"`
	PatientID     string             `db:"patient_id" json:"patientId"`
	PatientName   string             `db:"patient_name" json:"patientName"`
	Status        RelationshipStatus `db:"status" json:"status"`
	CreatedAt     time.Time          `db:"created_at" json:"createdAt"`
}

// RequestFilter constrains request listings. Exactly one of TherapistID or
// PatientID is used, therapist first.
type RequestFilter struct {
	TherapistID string
	PatientID   string
	Status      RequestStatus
}
