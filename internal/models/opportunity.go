package models

import (
	"time"

	"gorm.io/gorm"
)

// OpportunityType enumerates the kinds of postable opportunities.
type OpportunityType string

const (
	OpportunityScholarship OpportunityType = "scholarship"
	OpportunityInternship  OpportunityType = "internship"
	OpportunityGrant       OpportunityType = "grant"
	OpportunityFellowship  OpportunityType = "fellowship"
)

// ValidOpportunityType reports whether t is a known opportunity type.
func ValidOpportunityType(t OpportunityType) bool {
	switch t {
	case OpportunityScholarship, OpportunityInternship, OpportunityGrant, OpportunityFellowship:
		return true
	}
	return false
}

// Opportunity is a scholarship/internship/grant/fellowship listing. Owned by
// the catalog/admin domain; soft-disabled via IsActive in the normal flow.
type Opportunity struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	Title               string          `gorm:"size:500;not null;index" json:"title"`
	Description         string          `gorm:"type:text;not null" json:"description"`
	OpportunityType     OpportunityType `gorm:"size:20;not null;index" json:"opportunity_type"`
	Organization        string          `gorm:"size:255;not null" json:"organization"`
	OrganizationLogo    string          `gorm:"size:500" json:"organization_logo,omitempty"`
	Amount              *float64        `json:"amount,omitempty"`
	Currency            string          `gorm:"size:10;default:USD" json:"currency"`
	Deadline            time.Time       `gorm:"not null;index" json:"deadline"`
	EligibilityCriteria string          `gorm:"type:text;not null" json:"eligibility_criteria"`
	Requirements        string          `gorm:"type:text" json:"requirements,omitempty"`
	Location            string          `gorm:"size:255" json:"location,omitempty"`
	Duration            string          `gorm:"size:100" json:"duration,omitempty"`
	ApplicationURL      string          `gorm:"size:500" json:"application_url,omitempty"`
	IsFeatured          bool            `gorm:"default:false;index" json:"is_featured"`
	IsActive            bool            `gorm:"default:true;index" json:"is_active"`
	ViewCount           int             `gorm:"default:0" json:"view_count"`
	ApplicationCount    int             `gorm:"default:0" json:"application_count"`
	Rating              float64         `gorm:"default:0" json:"rating"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
	Applications        []Application   `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings             []Rating        `gorm:"foreignKey:OpportunityID;constraint:OnDelete:CASCADE" json:"-"`
}
