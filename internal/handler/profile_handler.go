package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type profileService interface {
	Upsert(ctx context.Context, patientID string, req dto.UpsertProfileRequest) (*models.PatientProfile, error)
	Get(ctx context.Context, patientID string) (*models.PatientProfile, error)
}

// ProfileHandler exposes patient ability profiles.
type ProfileHandler struct {
	profiles profileService
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(profiles profileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Upsert godoc
// @Summary Create or replace a patient profile
// @Tags Patients
// @Accept json
// @Produce json
// @Param id path string true "Patient ID"
// @Param payload body dto.UpsertProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/profile [put]
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req dto.UpsertProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.profiles.Upsert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// Get godoc
// @Summary Get a patient profile
// @Tags Patients
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}
