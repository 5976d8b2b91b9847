package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"teamtasks-backend/internal/identity"
	"teamtasks-backend/internal/producer"
	"teamtasks-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	issuer   identity.Issuer
	producer *producer.Producer
	webpush  *webpush.Options
	cache    *cache.Cache
	loc      *time.Location
}

// NewHandler creates a new API handler. Naive due dates are read in loc.
func NewHandler(s store.Store, issuer identity.Issuer, p *producer.Producer, webpushOptions *webpush.Options, responses *cache.Cache, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		store:    s,
		issuer:   issuer,
		producer: p,
		webpush:  webpushOptions,
		cache:    responses,
		loc:      loc,
	}
}
