package service

import (
	"context"
	"strings"
	"time"

	"nuesa/internal/auth"
	"nuesa/internal/models"
	"nuesa/internal/repository"
)

// OpportunityService owns the opportunity catalog: public listing and
// search, admin CRUD, saves and ratings.
type OpportunityService struct {
	repo repository.OpportunityRepository
}

// OpportunityInput carries the fields for creating or replacing an
// opportunity. Admin-only surface.
type OpportunityInput struct {
	Title               string                 `json:"title"`
	Description         string                 `json:"description"`
	OpportunityType     models.OpportunityType `json:"opportunity_type"`
	Organization        string                 `json:"organization"`
	OrganizationLogo    string                 `json:"organization_logo"`
	Amount              *float64               `json:"amount"`
	Currency            string                 `json:"currency"`
	Deadline            time.Time              `json:"deadline"`
	EligibilityCriteria string                 `json:"eligibility_criteria"`
	Requirements        string                 `json:"requirements"`
	Location            string                 `json:"location"`
	Duration            string                 `json:"duration"`
	ApplicationURL      string                 `json:"application_url"`
	IsFeatured          bool                   `json:"is_featured"`
	IsActive            *bool                  `json:"is_active"`
}

// RateOpportunityInput is the payload for rating an opportunity.
type RateOpportunityInput struct {
	Score  float64 `json:"score"`
	Review string  `json:"review"`
}

func NewOpportunityService(repo repository.OpportunityRepository) *OpportunityService {
	return &OpportunityService{repo: repo}
}

func (in *OpportunityInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return models.NewValidationError("Description is required")
	}
	if !models.ValidOpportunityType(in.OpportunityType) {
		return models.NewValidationError("Unknown opportunity type")
	}
	if strings.TrimSpace(in.Organization) == "" {
		return models.NewValidationError("Organization is required")
	}
	if in.Deadline.IsZero() {
		return models.NewValidationError("Deadline is required")
	}
	if strings.TrimSpace(in.EligibilityCriteria) == "" {
		return models.NewValidationError("Eligibility criteria is required")
	}
	return nil
}

// Get returns an opportunity and bumps its view counter. Inactive
// opportunities are hidden from non-admins.
func (s *OpportunityService) Get(ctx context.Context, principal *auth.Principal, id uint) (*models.Opportunity, error) {
	opp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !opp.IsActive && (principal == nil || !principal.IsAdmin) {
		return nil, models.NewNotFoundError("Opportunity", id)
	}
	// View bump is best-effort; the read already succeeded.
	_ = s.repo.IncrementViewCount(ctx, id)
	opp.ViewCount++
	return opp, nil
}

// List returns active opportunities matching the filter. Admins may opt in
// to inactive rows via the filter.
func (s *OpportunityService) List(ctx context.Context, principal *auth.Principal, filter repository.OpportunityFilter, limit, offset int) ([]models.Opportunity, int64, error) {
	if filter.Type != "" && !models.ValidOpportunityType(filter.Type) {
		return nil, 0, models.NewValidationError("Unknown opportunity type")
	}
	if filter.IncludeInactive && (principal == nil || !principal.IsAdmin) {
		filter.IncludeInactive = false
	}
	return s.repo.List(ctx, filter, limit, offset)
}

// Featured returns the active featured opportunities.
func (s *OpportunityService) Featured(ctx context.Context, limit int) ([]models.Opportunity, error) {
	opps, _, err := s.repo.List(ctx, repository.OpportunityFilter{FeaturedOnly: true}, limit, 0)
	return opps, err
}

// Create adds a new opportunity to the catalog.
func (s *OpportunityService) Create(ctx context.Context, in OpportunityInput) (*models.Opportunity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	opp := &models.Opportunity{
		Title:               in.Title,
		Description:         in.Description,
		OpportunityType:     in.OpportunityType,
		Organization:        in.Organization,
		OrganizationLogo:    in.OrganizationLogo,
		Amount:              in.Amount,
		Currency:            in.Currency,
		Deadline:            in.Deadline,
		EligibilityCriteria: in.EligibilityCriteria,
		Requirements:        in.Requirements,
		Location:            in.Location,
		Duration:            in.Duration,
		ApplicationURL:      in.ApplicationURL,
		IsFeatured:          in.IsFeatured,
		IsActive:            true,
	}
	if opp.Currency == "" {
		opp.Currency = "USD"
	}
	if in.IsActive != nil {
		opp.IsActive = *in.IsActive
	}

	if err := s.repo.Create(ctx, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

// Update replaces the mutable fields of an opportunity. Counters and
// rating aggregates are preserved.
func (s *OpportunityService) Update(ctx context.Context, id uint, in OpportunityInput) (*models.Opportunity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	opp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	opp.Title = in.Title
	opp.Description = in.Description
	opp.OpportunityType = in.OpportunityType
	opp.Organization = in.Organization
	opp.OrganizationLogo = in.OrganizationLogo
	opp.Amount = in.Amount
	opp.Deadline = in.Deadline
	opp.EligibilityCriteria = in.EligibilityCriteria
	opp.Requirements = in.Requirements
	opp.Location = in.Location
	opp.Duration = in.Duration
	opp.ApplicationURL = in.ApplicationURL
	opp.IsFeatured = in.IsFeatured
	if in.Currency != "" {
		opp.Currency = in.Currency
	}
	if in.IsActive != nil {
		opp.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

// Delete removes an opportunity and its dependent rows.
func (s *OpportunityService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// SaveOpportunity bookmarks an active opportunity for the principal.
func (s *OpportunityService) SaveOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint) error {
	opp, err := s.repo.GetByID(ctx, opportunityID)
	if err != nil {
		return err
	}
	if !opp.IsActive {
		return models.NewNotFoundError("Opportunity", opportunityID)
	}
	return s.repo.Save(ctx, principal.UserID, opportunityID)
}

// UnsaveOpportunity removes a bookmark.
func (s *OpportunityService) UnsaveOpportunity(ctx context.Context, principal auth.Principal, opportunityID uint) error {
	return s.repo.Unsave(ctx, principal.UserID, opportunityID)
}

// ListSaved returns the principal's bookmarked opportunities, most recently
// saved first.
func (s *OpportunityService) ListSaved(ctx context.Context, principal auth.Principal) ([]models.Opportunity, error) {
	return s.repo.ListSaved(ctx, principal.UserID)
}

// Rate records a 1-5 score, optionally with a review, and refreshes the
// opportunity's average rating.
func (s *OpportunityService) Rate(ctx context.Context, principal auth.Principal, opportunityID uint, in RateOpportunityInput) (*models.Rating, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, models.NewValidationError("Score must be between 1 and 5")
	}
	if _, err := s.repo.GetByID(ctx, opportunityID); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		UserID:        principal.UserID,
		OpportunityID: opportunityID,
		Score:         in.Score,
		Review:        in.Review,
	}
	if err := s.repo.AddRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}
