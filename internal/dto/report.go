package dto

import (
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

// GenerateReportRequest captures POST /reports payload.
type GenerateReportRequest struct {
	PatientID   string    `json:"patientId" validate:"required"`
	TherapistID string    `json:"-"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
}

// ExportRequest captures POST /reports/:id/exports payload.
type ExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf xlsx CSV PDF XLSX"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	ReportID string              `json:"reportId"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes export job progress metadata.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	ReportID    string              `json:"reportId"`
	Format      string              `json:"format"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
