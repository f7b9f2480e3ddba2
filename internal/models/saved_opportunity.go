package models

import "time"

// SavedOpportunity is the many-to-many join between users and the
// opportunities they bookmarked. Existence is the whole state: a pair is
// either saved or it is not.
type SavedOpportunity struct {
	UserID        uint      `gorm:"primaryKey" json:"user_id"`
	OpportunityID uint      `gorm:"primaryKey" json:"opportunity_id"`
	SavedAt       time.Time `gorm:"autoCreateTime" json:"saved_at"`
}
