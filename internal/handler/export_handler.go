package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
	"github.com/tramita/inbox-api/pkg/response"
)

type exportService interface {
	CreateExport(qctx models.QueueContext, req dto.CreateExportRequest) (*dto.ExportJobResponse, error)
	GetJob(id string) (*dto.ExportJobResponse, error)
	Open(token string) (*os.File, string, error)
}

// ExportHandler exposes asynchronous queue exports.
type ExportHandler struct {
	service         exportService
	defaultPageSize int
	maxPageSize     int
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService, defaultPageSize, maxPageSize int) *ExportHandler {
	return &ExportHandler{service: service, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Create godoc
// @Summary Export the current queue view
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportRequest true "Export parameters"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}

	qctx := queueContextFromRequest(c, claims, h.defaultPageSize, h.maxPageSize)
	// Exports cover the whole view, not one page.
	qctx.Page = 1
	qctx.PageSize = h.maxPageSize

	job, err := h.service.CreateExport(qctx, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.service.GetJob(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, name, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	path := file.Name()
	_ = file.Close()
	c.FileAttachment(path, filepath.Base(name))
}
