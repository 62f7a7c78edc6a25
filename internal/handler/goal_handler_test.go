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

type goalServiceMock struct {
	created  *dto.CreateGoalRequest
	snapshot models.ProgressSnapshot
	actor    string
	limit    int
	status   models.GoalStatus
	goal     *models.TherapyGoal
	err      error
}

func (m *goalServiceMock) Create(ctx context.Context, req dto.CreateGoalRequest) (*models.TherapyGoal, error) {
	m.created = &req
	return m.goal, m.err
}

func (m *goalServiceMock) GetWithProgress(ctx context.Context, id string) (*dto.GoalProgressResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.GoalProgressResponse{Goal: m.goal, Progress: 42}, nil
}

func (m *goalServiceMock) ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error) {
	if m.goal == nil {
		return nil, m.err
	}
	return []models.TherapyGoal{*m.goal}, m.err
}

func (m *goalServiceMock) ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error) {
	m.limit = limit
	return nil, m.err
}

func (m *goalServiceMock) ApplyMeasurement(ctx context.Context, goalID string, snapshot models.ProgressSnapshot, actorID string) (*models.TherapyGoal, error) {
	m.snapshot = snapshot
	m.actor = actorID
	return m.goal, m.err
}

func (m *goalServiceMock) SetStatus(ctx context.Context, goalID string, status models.GoalStatus) (*models.TherapyGoal, error) {
	m.status = status
	return m.goal, m.err
}

func TestGoalHandlerCreateUsesCallerAsTherapist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &goalServiceMock{goal: &models.TherapyGoal{ID: "goal-1"}}
	handler := NewGoalHandler(svc)

	c, w := newGinContext(http.MethodPost, "/goals", []byte(`{"patientId":"pat-1","title":"Request snack","therapistId":"spoofed"}`))
	withClaims(c, "ther-1", models.RoleTherapist)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "ther-1", svc.created.TherapistID)
}

func TestGoalHandlerApplyMeasurementPassesPartialSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &goalServiceMock{goal: &models.TherapyGoal{ID: "goal-1"}}
	handler := NewGoalHandler(svc)

	c, w := newGinContext(http.MethodPost, "/goals/goal-1/measurements", []byte(`{"accuracy":85}`))
	c.Params = gin.Params{{Key: "id", Value: "goal-1"}}
	withClaims(c, "ther-1", models.RoleTherapist)
	handler.ApplyMeasurement(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.snapshot.Accuracy)
	require.Equal(t, 85.0, *svc.snapshot.Accuracy)
	require.Nil(t, svc.snapshot.Frequency)
	require.Equal(t, "ther-1", svc.actor)
}

func TestGoalHandlerApplyMeasurementConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &goalServiceMock{err: appErrors.Clone(appErrors.ErrInvalidState, "goal is not active")}
	handler := NewGoalHandler(svc)

	c, w := newGinContext(http.MethodPost, "/goals/goal-1/measurements", []byte(`{"accuracy":85}`))
	c.Params = gin.Params{{Key: "id", Value: "goal-1"}}
	withClaims(c, "ther-1", models.RoleTherapist)
	handler.ApplyMeasurement(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestGoalHandlerGetIncludesProgress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGoalHandler(&goalServiceMock{goal: &models.TherapyGoal{ID: "goal-1"}})

	c, w := newGinContext(http.MethodGet, "/goals/goal-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "goal-1"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"progress":42`)
}

func TestGoalHandlerListMeasurementsLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &goalServiceMock{}
	handler := NewGoalHandler(svc)

	c, _ := newGinContext(http.MethodGet, "/goals/goal-1/measurements?limit=5", nil)
	c.Params = gin.Params{{Key: "id", Value: "goal-1"}}
	handler.ListMeasurements(c)
	require.Equal(t, 5, svc.limit)

	c, _ = newGinContext(http.MethodGet, "/goals/goal-1/measurements?limit=abc", nil)
	handler.ListMeasurements(c)
	require.Equal(t, 50, svc.limit)
}

func TestGoalHandlerSetStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &goalServiceMock{goal: &models.TherapyGoal{ID: "goal-1"}}
	handler := NewGoalHandler(svc)

	c, w := newGinContext(http.MethodPatch, "/goals/goal-1/status", []byte(`{"status":"paused"}`))
	c.Params = gin.Params{{Key: "id", Value: "goal-1"}}
	handler.SetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.GoalStatus("paused"), svc.status)
}
