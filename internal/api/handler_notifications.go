package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/mw"
)

const maxHistoryLimit = 200

// ListNotifications handles GET /api/notifications/, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(c, apperr.Validation("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	ns, err := h.store.ListNotifications(c.Request.Context(), mw.CurrentUser(c).UserID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, toNotification(n))
	}
	c.JSON(http.StatusOK, out)
}
