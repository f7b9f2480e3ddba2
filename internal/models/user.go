// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a registered account on the NUESA platform.
// Deleted accounts are removed for real: a soft-deleted row would keep
// holding the email unique index and block re-registering that address.
type User struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Email        string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string        `gorm:"size:255;not null" json:"full_name"`
	Password     string        `gorm:"size:255;not null" json:"-"`
	Phone        string        `gorm:"size:20" json:"phone,omitempty"`
	Bio          string        `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL    string        `gorm:"size:500" json:"avatar_url,omitempty"`
	IsActive     bool          `gorm:"default:true" json:"is_active"`
	IsAdmin      bool          `gorm:"default:false" json:"is_admin"`
	IsVerified   bool          `gorm:"default:false" json:"is_verified"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Applications []Application `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"applications,omitempty"`
	Profile      *UserProfile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}
