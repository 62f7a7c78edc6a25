package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, req dto.CreateTaskRequest) (*models.TherapyTask, error)
	Get(ctx context.Context, id string) (*models.TherapyTask, error)
	ListByGoal(ctx context.Context, goalID string) ([]models.TherapyTask, error)
	UpdateProgress(ctx context.Context, taskID string, progress float64, status *models.TaskStatus) (*models.TherapyTask, error)
	Edit(ctx context.Context, taskID string, patch dto.TaskPatch) (*models.TherapyTask, error)
	Recommended(ctx context.Context, query dto.RecommendedTasksQuery) ([]models.TherapyTask, error)
}

// TaskHandler exposes therapy task endpoints.
type TaskHandler struct {
	tasks taskService
}

// NewTaskHandler constructs a task handler.
func NewTaskHandler(tasks taskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create godoc
// @Summary Create therapy task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req, "invalid task payload") {
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

// ListByGoal godoc
// @Summary List tasks attached to a goal
// @Tags Tasks
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Router /goals/{id}/tasks [get]
func (h *TaskHandler) ListByGoal(c *gin.Context) {
	tasks, err := h.tasks.ListByGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, map[string]interface{}{"count": len(tasks)})
}

// UpdateProgress godoc
// @Summary Update task progress
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.TaskProgressRequest true "Progress"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/progress [patch]
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	var req dto.TaskProgressRequest
	if !bindJSON(c, &req, "invalid progress payload") {
		return
	}
	task, err := h.tasks.UpdateProgress(c.Request.Context(), c.Param("id"), req.Progress, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

// Edit godoc
// @Summary Patch task fields
// @Description Accepts a partial object; unknown fields are rejected.
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body object true "Field patch"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [patch]
func (h *TaskHandler) Edit(c *gin.Context) {
	var patch dto.TaskPatch
	if !bindJSON(c, &patch, "invalid task patch") {
		return
	}
	task, err := h.tasks.Edit(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

// Recommended godoc
// @Summary Recommended tasks for a patient
// @Tags Tasks
// @Produce json
// @Param id path string true "Patient ID"
// @Param discipline query string true "behavioral, speech or occupational"
// @Success 200 {object} response.Envelope
// @Router /patients/{id}/recommended-tasks [get]
func (h *TaskHandler) Recommended(c *gin.Context) {
	query := dto.RecommendedTasksQuery{
		PatientID:  c.Param("id"),
		Discipline: models.Discipline(c.Query("discipline")),
	}
	tasks, err := h.tasks.Recommended(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, map[string]interface{}{"count": len(tasks)})
}
