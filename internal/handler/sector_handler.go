package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/pkg/response"
)

type sectorLister interface {
	SectorOptions(ctx context.Context) []dto.SectorOption
}

// SectorHandler exposes the selectable sector filter list.
type SectorHandler struct {
	service sectorLister
}

// NewSectorHandler constructs the handler.
func NewSectorHandler(service sectorLister) *SectorHandler {
	return &SectorHandler{service: service}
}

// List godoc
// @Summary Selectable sectors
// @Tags Sectors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sectors [get]
func (h *SectorHandler) List(c *gin.Context) {
	options := h.service.SectorOptions(c.Request.Context())
	response.JSON(c, http.StatusOK, options, nil)
}
