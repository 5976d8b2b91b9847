package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"teamtasks-backend/internal/identity"
	"teamtasks-backend/internal/mw"
	"teamtasks-backend/internal/producer"
	"teamtasks-backend/internal/realtime"
	"teamtasks-backend/internal/store"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Store    store.Store
	Resolver identity.Resolver
	Issuer   identity.Issuer
	Producer *producer.Producer
	// Realtime serves /ws/notifications when set.
	Realtime *realtime.Handler
	Webpush  *webpush.Options
	Location *time.Location

	// RateLimit is per client IP; zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
	// CacheTTL enables per-user caching of the team listing when positive.
	CacheTTL time.Duration
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	var responses *cache.Cache
	if cfg.CacheTTL > 0 {
		responses = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	handler := NewHandler(cfg.Store, cfg.Issuer, cfg.Producer, cfg.Webpush, responses, cfg.Location)

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Inf
	}
	rateLimiter := mw.RateLimiter(cfg.RateLimit, cfg.RateBurst)
	auth := mw.Authenticate(cfg.Resolver)

	r.GET("/healthz", healthz(cfg.Ping))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Realtime != nil {
		r.GET("/ws/notifications", cfg.Realtime.ServeWS)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
		api.GET("/push/vapid_public_key", handler.GetVAPIDPublicKey)

		authed := api.Group("", auth)

		if responses != nil {
			authed.GET("/teams/", mw.Cache(responses, cfg.CacheTTL), handler.ListTeams)
		} else {
			authed.GET("/teams/", handler.ListTeams)
		}
		authed.POST("/teams/create/", handler.CreateTeam)

		authed.GET("/tasks/", handler.ListTasks)
		authed.POST("/tasks/create/", handler.CreateTask)
		authed.GET("/tasks/:id/", handler.GetTask)
		authed.POST("/tasks/:id/assign/", handler.AssignTask)
		authed.POST("/tasks/:id/mention/", handler.MentionInTask)

		authed.GET("/notifications/", handler.ListNotifications)

		authed.GET("/push/subscriptions", handler.GetSubscription)
		authed.PUT("/push/subscriptions", handler.PutSubscription)
		authed.DELETE("/push/subscriptions", handler.DeleteSubscription)
	}

	return r
}

func healthz(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
