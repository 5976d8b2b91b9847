package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/mw"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers or re-keys a browser push subscription for the caller.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.store.SaveSubscription(c.Request.Context(), model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   mw.CurrentUser(c).UserID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, ok := h.ownedSubscription(c, req.Endpoint)
	if !ok {
		return
	}
	if err := h.store.DeleteSubscription(c.Request.Context(), sub.Endpoint); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without URL decoding. Push endpoints are
// URLs themselves and are stored exactly as the browser reported them.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription reports whether the caller owns the given endpoint.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		writeError(c, apperr.Validation("endpoint is required"))
		return
	}
	sub, ok := h.ownedSubscription(c, raw)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoint": sub.Endpoint, "created_at": sub.CreatedAt})
}

// ownedSubscription loads endpoint, trying the decoded form if the raw one
// is unknown. Other users' subscriptions are reported as missing.
func (h *Handler) ownedSubscription(c *gin.Context, endpoint string) (model.PushSubscription, bool) {
	ctx := c.Request.Context()
	sub, err := h.store.GetSubscription(ctx, endpoint)
	if err != nil {
		if decoded, decErr := url.QueryUnescape(endpoint); decErr == nil && decoded != endpoint {
			sub, err = h.store.GetSubscription(ctx, decoded)
		}
	}
	if err == nil && sub.UserID != mw.CurrentUser(c).UserID {
		err = apperr.NotFound("subscription", endpoint)
	}
	if err != nil {
		writeError(c, err)
		return model.PushSubscription{}, false
	}
	return sub, true
}
