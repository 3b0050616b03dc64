package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/pkg/response"
)

type recipientSearcher interface {
	SearchRecipients(ctx context.Context, filter models.RecipientFilter) ([]dto.UserInfo, error)
}

// RecipientHandler exposes the forwarding recipient directory.
type RecipientHandler struct {
	service recipientSearcher
}

// NewRecipientHandler constructs the handler.
func NewRecipientHandler(service recipientSearcher) *RecipientHandler {
	return &RecipientHandler{service: service}
}

// Search godoc
// @Summary Search forwarding recipients
// @Tags Recipients
// @Produce json
// @Param search query string false "Name or login fragment"
// @Param sector query string false "Restrict to one sector"
// @Param limit query int false "Result limit"
// @Success 200 {object} response.Envelope
// @Router /recipients [get]
func (h *RecipientHandler) Search(c *gin.Context) {
	filter := models.RecipientFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Sector: strings.TrimSpace(c.Query("sector")),
		Limit:  intQuery(c, "limit", 0),
	}

	users, err := h.service.SearchRecipients(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}
