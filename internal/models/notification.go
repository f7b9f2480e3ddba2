package models

import "time"

// Notification types.
const (
	NotificationApplicationStatus = "application_status"
	NotificationNewOpportunity    = "new_opportunity"
	NotificationDeadlineReminder  = "deadline_reminder"
)

// Notification is a user-targeted message, optionally referencing an
// opportunity. The read flag is the only state it carries.
type Notification struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	Title                string     `gorm:"size:255;not null" json:"title"`
	Message              string     `gorm:"type:text;not null" json:"message"`
	NotificationType     string     `gorm:"size:50;not null" json:"notification_type"`
	IsRead               bool       `gorm:"default:false;index" json:"is_read"`
	RelatedOpportunityID *uint      `json:"related_opportunity_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	ReadAt               *time.Time `json:"read_at,omitempty"`
}
