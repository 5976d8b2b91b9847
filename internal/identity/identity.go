// Package identity turns connection and request credentials into users.
//
// Resolution never fails: an empty, unknown, expired or malformed credential
// yields the anonymous identity and the caller decides what that is allowed to do.
package identity

import (
	"context"
	"time"

	"teamtasks-backend/internal/model"
)

// Identity is the authenticated principal behind a credential.
type Identity struct {
	UserID    int64
	Username  string
	ExpiresAt *time.Time // nil when the credential does not expire
}

// Anonymous returns the identity used for missing or invalid credentials.
func Anonymous() Identity { return Identity{} }

// IsAnonymous reports whether no user is attached.
func (i Identity) IsAnonymous() bool { return i.UserID == 0 }

// DisplayName is the username, or Guest for anonymous identities.
func (i Identity) DisplayName() string {
	if i.IsAnonymous() {
		return "Guest"
	}
	return i.Username
}

// Resolver maps a raw credential to an identity.
type Resolver interface {
	Resolve(ctx context.Context, credential string) Identity
}

// Issuer mints a credential for a user that a matching Resolver accepts.
type Issuer interface {
	Issue(ctx context.Context, user model.User) (string, error)
}

func fromUser(u model.User, expiresAt *time.Time) Identity {
	return Identity{UserID: u.ID, Username: u.Username, ExpiresAt: expiresAt}
}
