package identity

import (
	"context"
	"errors"
	"log"
	"time"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

// TokenStore is the part of the store the opaque token scheme needs.
type TokenStore interface {
	GetOrCreateToken(ctx context.Context, userID int64, ttl time.Duration) (model.AuthToken, error)
	LookupToken(ctx context.Context, key string) (model.AuthToken, error)
}

// TokenResolver resolves opaque keys from the auth_tokens table.
type TokenResolver struct {
	store TokenStore
	now   func() time.Time
}

func NewTokenResolver(s TokenStore) *TokenResolver {
	return &TokenResolver{store: s, now: time.Now}
}

func (r *TokenResolver) Resolve(ctx context.Context, credential string) Identity {
	if credential == "" {
		return Anonymous()
	}
	token, err := r.store.LookupToken(ctx, credential)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			log.Printf("token lookup failed: %v", err)
		}
		return Anonymous()
	}
	if token.Expired(r.now()) {
		return Anonymous()
	}
	return fromUser(*token.User, token.ExpiresAt)
}

// TokenIssuer hands out the user's current opaque key.
type TokenIssuer struct {
	store TokenStore
	ttl   time.Duration
}

func NewTokenIssuer(s TokenStore, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{store: s, ttl: ttl}
}

func (i *TokenIssuer) Issue(ctx context.Context, user model.User) (string, error) {
	token, err := i.store.GetOrCreateToken(ctx, user.ID, i.ttl)
	if err != nil {
		return "", err
	}
	return token.Key, nil
}
