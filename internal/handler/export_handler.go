package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/service"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/response"
)

type exportService interface {
	RequestExport(ctx context.Context, reportID string, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ExportHandler exposes asynchronous report exports.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Request godoc
// @Summary Queue a report export
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ExportRequest true "Format"
// @Success 202 {object} response.Envelope
// @Router /reports/{id}/exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ExportRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	resp, err := h.exports.RequestExport(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	resp, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.exports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	size := int64(-1)
	if info, statErr := result.File.Stat(); statErr == nil {
		size = info.Size()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, result.ContentType, result.File, nil)
}
