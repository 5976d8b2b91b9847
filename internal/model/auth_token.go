package model

import "time"

// AuthToken is an opaque API credential bound to one user.
type AuthToken struct {
	Key       string     `gorm:"primaryKey;size:64"`
	UserID    int64      `gorm:"uniqueIndex;not null"`
	ExpiresAt *time.Time // nil never expires
	CreatedAt time.Time  `gorm:"not null"`

	// Associations
	User *User `gorm:"constraint:OnDelete:CASCADE"`
}

// Expired reports whether the token is no longer valid at now.
func (t AuthToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
