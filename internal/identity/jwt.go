package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"teamtasks-backend/internal/apperr"
	"teamtasks-backend/internal/model"
)

const defaultJWTTTL = 24 * time.Hour

// UserStore looks users up by id.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
}

type claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWT issues and resolves HS256 tokens carrying a user_id claim. The user must
// still exist for a token to resolve.
type JWT struct {
	secret []byte
	ttl    time.Duration
	users  UserStore
	now    func() time.Time
}

// NewJWT builds an issuer/resolver pair. ttl <= 0 falls back to 24h since
// signed tokens cannot be revoked.
func NewJWT(secret string, ttl time.Duration, users UserStore) *JWT {
	if ttl <= 0 {
		ttl = defaultJWTTTL
	}
	return &JWT{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

func (j *JWT) Issue(_ context.Context, user model.User) (string, error) {
	now := j.now()
	c := claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (j *JWT) Resolve(ctx context.Context, credential string) Identity {
	if credential == "" {
		return Anonymous()
	}
	var c claims
	_, err := jwt.ParseWithClaims(credential, &c, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil || c.UserID <= 0 {
		return Anonymous()
	}

	user, err := j.users.GetUser(ctx, c.UserID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			log.Printf("jwt user lookup failed: %v", err)
		}
		return Anonymous()
	}
	expires := c.ExpiresAt.Time
	return fromUser(user, &expires)
}
