package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type goalService interface {
	Create(ctx context.Context, req dto.CreateGoalRequest) (*models.TherapyGoal, error)
	GetWithProgress(ctx context.Context, id string) (*dto.GoalProgressResponse, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error)
	ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error)
	ApplyMeasurement(ctx context.Context, goalID string, snapshot models.ProgressSnapshot, actorID string) (*models.TherapyGoal, error)
	SetStatus(ctx context.Context, goalID string, status models.GoalStatus) (*models.TherapyGoal, error)
}

// GoalHandler exposes therapy goal endpoints.
type GoalHandler struct {
	goals goalService
}

// NewGoalHandler constructs a goal handler.
func NewGoalHandler(goals goalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// Create godoc
// @Summary Create therapy goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param payload body dto.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateGoalRequest
	if !bindJSON(c, &req, "invalid goal payload") {
		return
	}
	req.TherapistID = claims.UserID
	goal, err := h.goals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// Get godoc
// @Summary Get goal with progress percentage
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	result, err := h.goals.GetWithProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListByPatient godoc
// @Summary List goals of a patient
// @Tags Goals
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/goals [get]
func (h *GoalHandler) ListByPatient(c *gin.Context) {
	goals, err := h.goals.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goals, map[string]interface{}{"count": len(goals)})
}

// ApplyMeasurement godoc
// @Summary Apply a progress measurement
// @Description Merges the provided metrics into current progress and re-evaluates mastery.
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.MeasurementRequest true "Partial snapshot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/measurements [post]
func (h *GoalHandler) ApplyMeasurement(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.MeasurementRequest
	if !bindJSON(c, &req, "invalid measurement payload") {
		return
	}
	goal, err := h.goals.ApplyMeasurement(c.Request.Context(), c.Param("id"), req.Snapshot(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal)
}

// ListMeasurements godoc
// @Summary List measurement history
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Param limit query int false "Max records"
// @Success 200 {object} response.Envelope
// @Router /goals/{id}/measurements [get]
func (h *GoalHandler) ListMeasurements(c *gin.Context) {
	records, err := h.goals.ListMeasurements(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// SetStatus godoc
// @Summary Override goal status
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.GoalStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /goals/{id}/status [patch]
func (h *GoalHandler) SetStatus(c *gin.Context) {
	var req dto.GoalStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	goal, err := h.goals.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal)
}
