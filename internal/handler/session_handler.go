package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type sessionService interface {
	Create(ctx context.Context, req dto.CreateSessionRequest) (*models.TherapySession, error)
	Get(ctx context.Context, id string) (*models.TherapySession, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error)
}

// SessionHandler exposes therapy session logging.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create godoc
// @Summary Log a therapy session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	req.TherapistID = claims.UserID
	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// ListByPatient godoc
// @Summary List recent sessions of a patient
// @Tags Sessions
// @Produce json
// @Param id path string true "Patient ID"
// @Param limit query int false "Max sessions"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/sessions [get]
func (h *SessionHandler) ListByPatient(c *gin.Context) {
	sessions, err := h.sessions.ListByPatient(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, map[string]interface{}{"count": len(sessions)})
}
