package identity

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachingResolver memoises successful resolutions for a short time. Anonymous
// results are not cached, and an entry never outlives its credential.
type CachingResolver struct {
	next  Resolver
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachingResolver wraps next. A ttl <= 0 disables caching and next is returned as is.
func NewCachingResolver(next Resolver, ttl time.Duration) Resolver {
	if ttl <= 0 {
		return next
	}
	return &CachingResolver{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *CachingResolver) Resolve(ctx context.Context, credential string) Identity {
	if credential == "" {
		return Anonymous()
	}
	if v, ok := r.cache.Get(credential); ok {
		return v.(Identity)
	}

	id := r.next.Resolve(ctx, credential)
	if id.IsAnonymous() {
		return id
	}
	ttl := r.ttl
	if id.ExpiresAt != nil {
		if left := id.ExpiresAt.Sub(r.now()); left < ttl {
			ttl = left
		}
	}
	if ttl > 0 {
		r.cache.Set(credential, id, ttl)
	}
	return id
}
