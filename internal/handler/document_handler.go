package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/internal/service"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
	"github.com/tramita/inbox-api/pkg/response"
)

type inboxService interface {
	List(ctx context.Context, qctx models.QueueContext) (dto.ListDocumentsResult, int, error)
	Get(ctx context.Context, id string) (*dto.DocumentView, error)
}

type triageService interface {
	Dispatch(ctx context.Context, action, documentID string, req dto.DispatchRequest, actor *models.JWTClaims) (*models.Document, error)
	MarkRead(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error)
	StartAnalysis(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error)
	Forward(ctx context.Context, documentID string, req dto.ForwardRequest, actor *models.JWTClaims) (*models.Document, error)
	Archive(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error)
}

// DocumentHandler wires the inbox and triage services to HTTP endpoints.
type DocumentHandler struct {
	inbox           inboxService
	triage          triageService
	metrics         *service.MetricsService
	defaultPageSize int
	maxPageSize     int
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(inbox inboxService, triage triageService, metrics *service.MetricsService, defaultPageSize, maxPageSize int) *DocumentHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &DocumentHandler{
		inbox:           inbox,
		triage:          triage,
		metrics:         metrics,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// List godoc
// @Summary List inbox documents for the active queue
// @Tags Documents
// @Produce json
// @Param queue query string false "Queue (personal|sector)"
// @Param sector query string false "Sector code for the sector queue"
// @Param status query string false "Comma-separated status filter"
// @Param priority query string false "Comma-separated priority filter"
// @Param type query string false "Comma-separated document type filter"
// @Param search query string false "Free-text search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	qctx := queueContextFromRequest(c, claims, h.defaultPageSize, h.maxPageSize)

	result, total, err := h.inbox.List(c.Request.Context(), qctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{"stale": result.Stale}
	if result.Stale {
		h.metrics.ObserveStaleListing()
	}
	pagination := &models.Pagination{Page: qctx.Page, PageSize: qctx.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, result.Documents, pagination, meta)
}

// Get godoc
// @Summary Fetch a single document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	view, err := h.inbox.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MarkRead godoc
// @Summary Mark a document as read
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/read [post]
func (h *DocumentHandler) MarkRead(c *gin.Context) {
	h.mutate(c, service.ActionMarkRead, func(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error) {
		return h.triage.MarkRead(ctx, id, claims)
	})
}

// StartAnalysis godoc
// @Summary Move a document into analysis
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/analysis [post]
func (h *DocumentHandler) StartAnalysis(c *gin.Context) {
	h.mutate(c, service.ActionStartAnalysis, func(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error) {
		return h.triage.StartAnalysis(ctx, id, claims)
	})
}

// Forward godoc
// @Summary Forward a document to a sector or recipient
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ForwardRequest true "Routing target"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/forward [post]
func (h *DocumentHandler) Forward(c *gin.Context) {
	var req dto.ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid forward payload"))
		return
	}
	h.mutate(c, service.ActionForward, func(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error) {
		return h.triage.Forward(ctx, id, req, claims)
	})
}

// Archive godoc
// @Summary Archive a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/archive [post]
func (h *DocumentHandler) Archive(c *gin.Context) {
	h.mutate(c, service.ActionArchive, func(ctx context.Context, id string, claims *models.JWTClaims) (*models.Document, error) {
		return h.triage.Archive(ctx, id, claims)
	})
}

// Dispatch godoc
// @Summary Execute a triage action by name
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.DispatchRequest true "Action"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/actions [post]
func (h *DocumentHandler) Dispatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action payload"))
		return
	}

	doc, err := h.triage.Dispatch(c.Request.Context(), req.Action, c.Param("id"), req, claims)
	if err != nil {
		h.metrics.ObserveTriageAction(req.Action, "error")
		response.Error(c, err)
		return
	}
	h.metrics.ObserveTriageAction(req.Action, "ok")
	if doc == nil {
		response.NoContent(c)
		return
	}
	view := dto.NewDocumentView(*doc, time.Now().UTC())
	response.JSON(c, http.StatusOK, view, nil)
}

func (h *DocumentHandler) mutate(c *gin.Context, action string, fn func(context.Context, string, *models.JWTClaims) (*models.Document, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	doc, err := fn(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		h.metrics.ObserveTriageAction(action, "error")
		response.Error(c, err)
		return
	}
	h.metrics.ObserveTriageAction(action, "ok")
	view := dto.NewDocumentView(*doc, time.Now().UTC())
	response.JSON(c, http.StatusOK, view, nil)
}
