package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req dto.GenerateReportRequest) (*models.ProgressReport, error)
	Get(ctx context.Context, id string) (*models.ProgressReport, error)
	List(ctx context.Context, patientID string) ([]models.ProgressReport, error)
}

// ReportHandler exposes progress report endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate godoc
// @Summary Generate a progress report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.GenerateReportRequest true "Patient and date range"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.GenerateReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	req.TherapistID = claims.UserID
	report, err := h.reports.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Get godoc
// @Summary Get a progress report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// ListByPatient godoc
// @Summary List progress reports of a patient
// @Tags Reports
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/reports [get]
func (h *ReportHandler) ListByPatient(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, map[string]interface{}{"count": len(reports)})
}
