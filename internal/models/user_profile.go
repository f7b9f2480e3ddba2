package models

import "time"

// UserProfile holds the extended academic profile attached to a user.
// It is created lazily on first access and cascade-deleted with the user.
type UserProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	GPA         *float64  `json:"gpa,omitempty"`
	University  string    `gorm:"size:255" json:"university,omitempty"`
	Major       string    `gorm:"size:255" json:"major,omitempty"`
	YearOfStudy string    `gorm:"size:50" json:"year_of_study,omitempty"`
	Skills      string    `gorm:"type:text" json:"skills,omitempty"`
	Experience  string    `gorm:"type:text" json:"experience,omitempty"`
	Country     string    `gorm:"size:100" json:"country,omitempty"`
	State       string    `gorm:"size:100" json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
