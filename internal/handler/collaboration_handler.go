package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type collaborationService interface {
	CreateRequest(ctx context.Context, req dto.CreateCollaborationRequest) (*models.CollaborationRequest, error)
	Accept(ctx context.Context, requestID string, actor *models.JWTClaims) (*dto.AcceptResponse, error)
	Decline(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.CollaborationRequest, error)
	ListForTherapist(ctx context.Context, therapistID string, status models.RequestStatus) ([]models.CollaborationRequest, error)
	ListForPatient(ctx context.Context, patientID string, status models.RequestStatus) ([]models.CollaborationRequest, error)
	ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error)
}

// CollaborationHandler exposes therapist/patient collaboration workflows.
type CollaborationHandler struct {
	collab collaborationService
}

// NewCollaborationHandler constructs a collaboration handler.
func NewCollaborationHandler(collab collaborationService) *CollaborationHandler {
	return &CollaborationHandler{collab: collab}
}

// CreateRequest godoc
// @Summary Ask a therapist to take on a patient
// @Tags Collaboration
// @Accept json
// @Produce json
// @Param payload body dto.CreateCollaborationRequest true "Request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collaboration/requests [post]
func (h *CollaborationHandler) CreateRequest(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateCollaborationRequest
	if !bindJSON(c, &req, "invalid collaboration payload") {
		return
	}
	if claims.Role == models.RolePatient && req.PatientID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "patients may only request collaboration for themselves"))
		return
	}
	created, err := h.collab.CreateRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Accept godoc
// @Summary Accept a pending request
// @Description Marks the request accepted and creates the active relationship atomically.
// @Tags Collaboration
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /collaboration/requests/{id}/accept [post]
func (h *CollaborationHandler) Accept(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	result, err := h.collab.Accept(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Decline godoc
// @Summary Decline a pending request
// @Tags Collaboration
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /collaboration/requests/{id}/decline [post]
func (h *CollaborationHandler) Decline(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	result, err := h.collab.Decline(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListRequests godoc
// @Summary List collaboration requests visible to the caller
// @Tags Collaboration
// @Produce json
// @Param status query string false "pending, accepted or declined"
// @Param therapistId query string false "Admin only"
// @Param patientId query string false "Admin only"
// @Success 200 {object} response.Envelope
// @Router /collaboration/requests [get]
func (h *CollaborationHandler) ListRequests(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	status := models.RequestStatus(c.Query("status"))
	ctx := c.Request.Context()

	var (
		items []models.CollaborationRequest
		err   error
	)
	switch claims.Role {
	case models.RoleTherapist:
		items, err = h.collab.ListForTherapist(ctx, claims.UserID, status)
	case models.RolePatient, models.RoleParent:
		items, err = h.collab.ListForPatient(ctx, claims.UserID, status)
	case models.RoleAdmin:
		if therapistID := c.Query("therapistId"); therapistID != "" {
			items, err = h.collab.ListForTherapist(ctx, therapistID, status)
		} else if patientID := c.Query("patientId"); patientID != "" {
			items, err = h.collab.ListForPatient(ctx, patientID, status)
		} else {
			err = appErrors.Clone(appErrors.ErrValidation, "therapistId or patientId required")
		}
	default:
		err = appErrors.ErrForbidden
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// ListRelationships godoc
// @Summary List active relationships of the calling therapist
// @Tags Collaboration
// @Produce json
// @Param therapistId query string false "Admin only"
// @Success 200 {object} response.Envelope
// @Router /collaboration/relationships [get]
func (h *CollaborationHandler) ListRelationships(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	therapistID := claims.UserID
	if claims.Role == models.RoleAdmin && c.Query("therapistId") != "" {
		therapistID = c.Query("therapistId")
	}
	items, err := h.collab.ListRelationships(c.Request.Context(), therapistID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}
