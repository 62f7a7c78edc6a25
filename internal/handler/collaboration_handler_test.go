package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

type collaborationServiceMock struct {
	calls       []string
	listedFor   string
	acceptActor *models.JWTClaims
	err         error
}

func (m *collaborationServiceMock) CreateRequest(ctx context.Context, req dto.CreateCollaborationRequest) (*models.CollaborationRequest, error) {
	m.calls = append(m.calls, "create")
	if m.err != nil {
		return nil, m.err
	}
	return &models.CollaborationRequest{ID: "req-1", PatientID: req.PatientID, Status: models.RequestStatusPending}, nil
}

func (m *collaborationServiceMock) Accept(ctx context.Context, requestID string, actor *models.JWTClaims) (*dto.AcceptResponse, error) {
	m.calls = append(m.calls, "accept")
	m.acceptActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &dto.AcceptResponse{Request: &models.CollaborationRequest{ID: requestID, Status: models.RequestStatusAccepted}}, nil
}

func (m *collaborationServiceMock) Decline(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.CollaborationRequest, error) {
	m.calls = append(m.calls, "decline")
	return &models.CollaborationRequest{ID: requestID, Status: models.RequestStatusDeclined}, m.err
}

func (m *collaborationServiceMock) ListForTherapist(ctx context.Context, therapistID string, status models.RequestStatus) ([]models.CollaborationRequest, error) {
	m.calls = append(m.calls, "therapist")
	m.listedFor = therapistID
	return nil, m.err
}

func (m *collaborationServiceMock) ListForPatient(ctx context.Context, patientID string, status models.RequestStatus) ([]models.CollaborationRequest, error) {
	m.calls = append(m.calls, "patient")
	m.listedFor = patientID
	return nil, m.err
}

func (m *collaborationServiceMock) ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error) {
	m.calls = append(m.calls, "relationships")
	m.listedFor = therapistID
	return nil, m.err
}

func TestCollaborationHandlerPatientCannotRequestForOthers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &collaborationServiceMock{}
	handler := NewCollaborationHandler(svc)

	c, w := newGinContext(http.MethodPost, "/collaboration/requests", []byte(`{"patientId":"pat-2","therapistId":"ther-1"}`))
	withClaims(c, "pat-1", models.RolePatient)
	handler.CreateRequest(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, svc.calls)
}

func TestCollaborationHandlerParentMayRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &collaborationServiceMock{}
	handler := NewCollaborationHandler(svc)

	c, w := newGinContext(http.MethodPost, "/collaboration/requests", []byte(`{"patientId":"pat-2","therapistId":"ther-1"}`))
	withClaims(c, "parent-1", models.RoleParent)
	handler.CreateRequest(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, []string{"create"}, svc.calls)
}

func TestCollaborationHandlerAcceptConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &collaborationServiceMock{err: appErrors.Clone(appErrors.ErrInvalidState, "request is no longer pending")}
	handler := NewCollaborationHandler(svc)

	c, w := newGinContext(http.MethodPost, "/collaboration/requests/req-1/accept", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	withClaims(c, "ther-1", models.RoleTherapist)
	handler.Accept(c)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ther-1", svc.acceptActor.UserID)
}

func TestCollaborationHandlerListRoutesByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		role     models.UserRole
		query    string
		call     string
		listedBy string
		status   int
	}{
		{name: "therapist", role: models.RoleTherapist, call: "therapist", listedBy: "user-1", status: http.StatusOK},
		{name: "patient", role: models.RolePatient, call: "patient", listedBy: "user-1", status: http.StatusOK},
		{name: "admin by patient", role: models.RoleAdmin, query: "?patientId=pat-9", call: "patient", listedBy: "pat-9", status: http.StatusOK},
		{name: "admin without filter", role: models.RoleAdmin, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &collaborationServiceMock{}
			handler := NewCollaborationHandler(svc)
			c, w := newGinContext(http.MethodGet, "/collaboration/requests"+tc.query, nil)
			withClaims(c, "user-1", tc.role)
			handler.ListRequests(c)

			require.Equal(t, tc.status, w.Code)
			if tc.call != "" {
				require.Equal(t, []string{tc.call}, svc.calls)
				require.Equal(t, tc.listedBy, svc.listedFor)
			}
		})
	}
}
