package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks-backend/internal/model"
	"teamtasks-backend/internal/store"
	"teamtasks-backend/internal/testutil"
)

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "Guest", Anonymous().DisplayName())
	assert.True(t, Anonymous().IsAnonymous())
	assert.Equal(t, "alice", Identity{UserID: 1, Username: "alice"}.DisplayName())
}

func TestTokenResolver(t *testing.T) {
	gormDB := testutil.NewTestDB(t)
	s := store.NewGormStore(gormDB)
	ctx := context.Background()

	alice := testutil.MustCreateUser(t, gormDB, "alice")
	bob := testutil.MustCreateUser(t, gormDB, "bob")

	key, err := NewTokenIssuer(s, 0).Issue(ctx, alice)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, gormDB.Create(&model.AuthToken{Key: "stale", UserID: bob.ID, ExpiresAt: &past, CreatedAt: past}).Error)

	r := NewTokenResolver(s)
	got := r.Resolve(ctx, key)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Nil(t, got.ExpiresAt)

	for name, cred := range map[string]string{
		"empty":   "",
		"unknown": "does-not-exist",
		"expired": "stale",
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, r.Resolve(ctx, cred).IsAnonymous())
		})
	}
}

func TestTokenIssuer_ReusesLiveToken(t *testing.T) {
	gormDB := testutil.NewTestDB(t)
	s := store.NewGormStore(gormDB)
	alice := testutil.MustCreateUser(t, gormDB, "alice")

	issuer := NewTokenIssuer(s, time.Hour)
	first, err := issuer.Issue(context.Background(), alice)
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestJWT_RoundTrip(t *testing.T) {
	gormDB := testutil.NewTestDB(t)
	s := store.NewGormStore(gormDB)
	ctx := context.Background()
	alice := testutil.MustCreateUser(t, gormDB, "alice")

	j := NewJWT("secret", time.Hour, s)
	signed, err := j.Issue(ctx, alice)
	require.NoError(t, err)

	got := j.Resolve(ctx, signed)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "alice", got.Username)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *got.ExpiresAt, time.Minute)
}

func TestJWT_Rejects(t *testing.T) {
	gormDB := testutil.NewTestDB(t)
	s := store.NewGormStore(gormDB)
	ctx := context.Background()
	alice := testutil.MustCreateUser(t, gormDB, "alice")

	j := NewJWT("secret", time.Hour, s)

	other, err := NewJWT("other-secret", time.Hour, s).Issue(ctx, alice)
	require.NoError(t, err)

	expiredIssuer := NewJWT("secret", time.Hour, s)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(ctx, alice)
	require.NoError(t, err)

	ghost, err := j.Issue(ctx, model.User{ID: 999, Username: "ghost"})
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": alice.ID}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, cred := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": other,
		"expired":      expired,
		"unknown user": ghost,
		"no expiry":    noExp,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, j.Resolve(ctx, cred).IsAnonymous())
		})
	}
}

type countingResolver struct {
	calls int
	id    Identity
}

func (r *countingResolver) Resolve(context.Context, string) Identity {
	r.calls++
	return r.id
}

func TestCachingResolver_CachesPositiveLookups(t *testing.T) {
	inner := &countingResolver{id: Identity{UserID: 7, Username: "alice"}}
	r := NewCachingResolver(inner, time.Minute)

	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(7), r.Resolve(context.Background(), "key").UserID)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachingResolver_SkipsAnonymous(t *testing.T) {
	inner := &countingResolver{}
	r := NewCachingResolver(inner, time.Minute)

	r.Resolve(context.Background(), "bad")
	r.Resolve(context.Background(), "bad")
	assert.Equal(t, 2, inner.calls)

	r.Resolve(context.Background(), "")
	assert.Equal(t, 2, inner.calls, "empty credentials never reach the inner resolver")
}

func TestCachingResolver_RespectsExpiry(t *testing.T) {
	expired := time.Now().Add(-time.Second)
	inner := &countingResolver{id: Identity{UserID: 7, Username: "alice", ExpiresAt: &expired}}
	r := NewCachingResolver(inner, time.Minute)

	r.Resolve(context.Background(), "key")
	r.Resolve(context.Background(), "key")
	assert.Equal(t, 2, inner.calls)
}

func TestNewCachingResolver_Disabled(t *testing.T) {
	inner := &countingResolver{}
	assert.Same(t, inner, NewCachingResolver(inner, 0))
}
