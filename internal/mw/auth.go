package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamtasks-backend/internal/identity"
)

const identityKey = "identity"

// Authenticate resolves the Authorization header ("Token <key>" or
// "Bearer <jwt>") and rejects anonymous requests with 401.
func Authenticate(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, ok := credentialFrom(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		id := resolver.Resolve(c.Request.Context(), credential)
		if id.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// CurrentUser returns the identity set by Authenticate, or Anonymous.
func CurrentUser(c *gin.Context) identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	return identity.Anonymous()
}

func credentialFrom(header string) (string, bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
	default:
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, credential != ""
}
