package models

import "time"

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusDraft       ApplicationStatus = "draft"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusAccepted    ApplicationStatus = "accepted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

// ValidApplicationStatus reports whether s is a known lifecycle state.
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// statusTransitions encodes the legal lifecycle moves:
// draft -> submitted -> under_review -> accepted|rejected,
// submitted|under_review -> withdrawn. Draft leaves the
// lifecycle only through deletion.
var statusTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview, StatusWithdrawn},
	StatusUnderReview: {StatusAccepted, StatusRejected, StatusWithdrawn},
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle transition.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal lifecycle state.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// Application links one user to one opportunity. At most one application may
// exist per (user, opportunity) pair, enforced by a composite unique index.
type Application struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"not null;index;uniqueIndex:idx_app_user_opportunity" json:"user_id"`
	OpportunityID uint              `gorm:"not null;index;uniqueIndex:idx_app_user_opportunity" json:"opportunity_id"`
	User          User              `gorm:"foreignKey:UserID" json:"-"`
	Opportunity   *Opportunity      `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	Status        ApplicationStatus `gorm:"size:20;default:draft;index" json:"status"`
	ResponseData  string            `gorm:"type:text" json:"response_data,omitempty"`
	ResumeURL     string            `gorm:"size:500" json:"resume_url,omitempty"`
	CoverLetter   string            `gorm:"type:text" json:"cover_letter,omitempty"`
	Feedback      string            `gorm:"type:text" json:"feedback,omitempty"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Applications are deleted for real, not soft-deleted: a lingering
// soft-deleted row would keep blocking the (user, opportunity) unique index.
