package model

import "time"

// Team groups users; tasks always belong to exactly one team.
type Team struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Members []*User `gorm:"many2many:team_members;constraint:OnDelete:CASCADE"`
}
