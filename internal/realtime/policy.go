package realtime

import (
	"fmt"
	"strconv"

	"teamtasks-backend/internal/identity"
)

// Group keys used by the built-in policies.
const (
	AnonymousGroup = "anonymous"
	BroadcastGroup = "all_users"
)

// TargetPolicy decides which group a connection joins and which group a
// user's notifications are pushed to. It is chosen once at startup.
type TargetPolicy interface {
	GroupFor(id identity.Identity) string
	GroupForUser(userID int64) string
}

// PerUser routes each user's notifications to that user's connections only.
type PerUser struct{}

func (PerUser) GroupFor(id identity.Identity) string {
	if id.IsAnonymous() {
		return AnonymousGroup
	}
	return userGroup(id.UserID)
}

func (PerUser) GroupForUser(userID int64) string { return userGroup(userID) }

// Broadcast puts every connection, anonymous ones included, in one group.
type Broadcast struct{}

func (Broadcast) GroupFor(identity.Identity) string { return BroadcastGroup }
func (Broadcast) GroupForUser(int64) string         { return BroadcastGroup }

func userGroup(userID int64) string { return "user_" + strconv.FormatInt(userID, 10) }

// ParsePolicy maps the realtime.target config value to a policy.
func ParsePolicy(name string) (TargetPolicy, error) {
	switch name {
	case "", "per_user":
		return PerUser{}, nil
	case "broadcast":
		return Broadcast{}, nil
	}
	return nil, fmt.Errorf("unknown target policy %q", name)
}
