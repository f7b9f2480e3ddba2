package models

import "time"

// Rating is a user's 1-5 score (with optional review text) for an
// opportunity. Rows are append-only; the opportunity's aggregate rating is
// recomputed from them on write.
type Rating struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OpportunityID uint      `gorm:"not null;index" json:"opportunity_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Score         float64   `gorm:"not null" json:"score"`
	Review        string    `gorm:"type:text" json:"review,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
