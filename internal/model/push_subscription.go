package model

import "time"

// PushSubscription holds a browser web push endpoint registered by a user.
// It is the offline channel used when the user has no live connection.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	User *User `gorm:"constraint:OnDelete:CASCADE"`
}
