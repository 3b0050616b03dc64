package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/internal/service"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
	"github.com/tramita/inbox-api/pkg/response"
)

type statisticsService interface {
	Summarize(ctx context.Context, qctx models.QueueContext) (models.StatisticsSnapshot, string, error)
}

// StatisticsHandler exposes inbox statistics.
type StatisticsHandler struct {
	service         statisticsService
	metrics         *service.MetricsService
	defaultPageSize int
	maxPageSize     int
}

// NewStatisticsHandler constructs the handler.
func NewStatisticsHandler(svc statisticsService, metrics *service.MetricsService, defaultPageSize, maxPageSize int) *StatisticsHandler {
	return &StatisticsHandler{service: svc, metrics: metrics, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Summary godoc
// @Summary Inbox statistics for the active queue
// @Tags Statistics
// @Produce json
// @Param queue query string false "Queue (personal|sector)"
// @Param sector query string false "Sector code for the sector queue"
// @Success 200 {object} response.Envelope
// @Router /documents/statistics [get]
func (h *StatisticsHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	qctx := queueContextFromRequest(c, claims, h.defaultPageSize, h.maxPageSize)

	snapshot, source, err := h.service.Summarize(c.Request.Context(), qctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveStatisticsSource(source)
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"source": source})
}
