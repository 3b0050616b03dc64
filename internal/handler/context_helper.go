package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tramita/inbox-api/internal/middleware"
	"github.com/tramita/inbox-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// queueContextFromRequest builds the queue context for the current request.
// The user identity always comes from the token, never from the query. An
// unselected sector on the sector queue means "all routed documents".
func queueContextFromRequest(c *gin.Context, claims *models.JWTClaims, defaultPageSize, maxPageSize int) models.QueueContext {
	qctx := models.QueueContext{
		Queue:                 models.QueuePersonal,
		EmptySectorMatchesAll: true,
		Search:                strings.TrimSpace(c.Query("search")),
		Page:                  intQuery(c, "page", 1),
		PageSize:              intQuery(c, "page_size", defaultPageSize),
	}
	if claims != nil {
		qctx.UserID = claims.UserID
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("queue")), string(models.QueueSector)) {
		qctx.Queue = models.QueueSector
		qctx.Sector = strings.TrimSpace(c.Query("sector"))
	}
	if qctx.Page < 1 {
		qctx.Page = 1
	}
	if qctx.PageSize <= 0 {
		qctx.PageSize = defaultPageSize
	}
	if maxPageSize > 0 && qctx.PageSize > maxPageSize {
		qctx.PageSize = maxPageSize
	}

	for _, raw := range splitQuery(c.Query("status")) {
		status := models.DocumentStatus(strings.ToUpper(raw))
		if status.Valid() {
			qctx.Status = append(qctx.Status, status)
		}
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		qctx.Priority = append(qctx.Priority, models.DocumentPriority(strings.ToUpper(raw)))
	}
	for _, raw := range splitQuery(c.Query("type")) {
		qctx.Type = append(qctx.Type, models.DocumentType(strings.ToUpper(raw)))
	}
	return qctx
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
