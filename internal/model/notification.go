package model

import "time"

// NotificationType is the kind of domain event a notification reports.
type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
	NotificationMention    NotificationType = "mention"
	NotificationOverdue    NotificationType = "overdue"
)

// Valid reports whether t is one of the enumerated notification kinds.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAssignment, NotificationMention, NotificationOverdue:
		return true
	}
	return false
}

// MaxNotificationTitleLen bounds Notification.Title.
const MaxNotificationTitleLen = 200

// Notification is the durable record written for every dispatch.
// Rows are never updated; they go away with their user, and lose their
// task link when the task is deleted.
type Notification struct {
	ID        int64            `gorm:"primaryKey"`
	UserID    int64            `gorm:"not null;index"`
	Type      NotificationType `gorm:"size:20;not null"`
	Title     string           `gorm:"size:200;not null"`
	Message   string           `gorm:"type:text;not null"`
	TaskID    *int64           `gorm:"index"`
	CreatedAt time.Time        `gorm:"not null;index"`

	// Associations
	User *User `gorm:"constraint:OnDelete:CASCADE"`
	Task *Task `gorm:"constraint:OnDelete:SET NULL"`
}
