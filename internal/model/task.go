package model

import "time"

// Priority is the coarse urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	MaxTaskTitleLen       = 250
	MaxTaskDescriptionLen = 500
)

// Task is a unit of work inside a team.
type Task struct {
	ID          int64     `gorm:"primaryKey"`
	Title       string    `gorm:"size:250;not null"`
	Description string    `gorm:"size:500;not null"`
	DueDate     time.Time `gorm:"not null;index"`
	Priority    Priority  `gorm:"size:10;not null"`
	CreatorID   int64     `gorm:"not null;index"`
	AssigneeID  *int64    `gorm:"index"`
	TeamID      int64     `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Creator     *User   `gorm:"constraint:OnDelete:CASCADE"`
	Assignee    *User   `gorm:"constraint:OnDelete:SET NULL"`
	Team        *Team   `gorm:"constraint:OnDelete:CASCADE"`
	TaggedUsers []*User `gorm:"many2many:task_tagged_users;constraint:OnDelete:CASCADE"`
}
