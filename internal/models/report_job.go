package models

import "time"

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ReportExportJob persisted background export metadata.
type ReportExportJob struct {
	ID           string       `db:"id" json:"id"`
	ReportID     string       `db:"report_id" json:"reportId"`
	Format       string       `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	Progress     int          `db:"progress" json:"progress"`
	ResultURL    *string      `db:"result_url" json:"resultUrl,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"errorMessage,omitempty"`
	CreatedBy    string       `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finishedAt,omitempty"`
}
