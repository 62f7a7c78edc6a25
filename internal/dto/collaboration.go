package dto

import "github.com/noah-isme/aac-therapy-api/internal/models"

// CreateCollaborationRequest captures POST /collaboration/requests payload.
type CreateCollaborationRequest struct {
	PatientID     string `json:"patientId" validate:"required"`
	PatientName   string `json:"patientName" validate:"max=200"`
	TherapistID   string `json:"therapistId" validate:"required"`
	TherapistName string `json:"therapistName" validate:"max=200"`
	Message       string `json:"message" validate:"max=2000"`
}

// AcceptResponse is returned when a request is accepted.
type AcceptResponse struct {
	Request      *models.CollaborationRequest         `json:"request"`
	Relationship *models.TherapistPatientRelationship `json:"relationship"`
}
