package repository

import (
	"context"
	"errors"

	"nuesa/internal/cache"
	"nuesa/internal/models"

	"gorm.io/gorm"
)

// OpportunityFilter narrows a listing query. Zero values mean "no filter".
type OpportunityFilter struct {
	Type            models.OpportunityType
	Organization    string
	Keyword         string
	FeaturedOnly    bool
	IncludeInactive bool
}

// OpportunityRepository defines persistence operations for opportunities,
// saved opportunities and ratings.
type OpportunityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Opportunity, error)
	List(ctx context.Context, filter OpportunityFilter, limit, offset int) ([]models.Opportunity, int64, error)
	Create(ctx context.Context, opp *models.Opportunity) error
	Update(ctx context.Context, opp *models.Opportunity) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error

	Save(ctx context.Context, userID, opportunityID uint) error
	Unsave(ctx context.Context, userID, opportunityID uint) error
	IsSaved(ctx context.Context, userID, opportunityID uint) (bool, error)
	ListSaved(ctx context.Context, userID uint) ([]models.Opportunity, error)

	AddRating(ctx context.Context, rating *models.Rating) error
}

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository returns a new OpportunityRepository implementation.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) GetByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	key := cache.OpportunityKey(id)

	err := cache.Aside(ctx, key, &opp, cache.OpportunityTTL, func() error {
		if err := r.db.WithContext(ctx).First(&opp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Opportunity", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *opportunityRepository) List(ctx context.Context, filter OpportunityFilter, limit, offset int) ([]models.Opportunity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Opportunity{})

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("opportunity_type = ?", filter.Type)
	}
	if filter.Organization != "" {
		query = query.Where("LOWER(organization) LIKE ?", "%"+lowered(filter.Organization)+"%")
	}
	if filter.Keyword != "" {
		kw := "%" + lowered(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(organization) LIKE ?",
			kw, kw, kw,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var opportunities []models.Opportunity
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&opportunities).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return opportunities, total, nil
}

func (r *opportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	if err := r.db.WithContext(ctx).Create(opp).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.FeaturedKey())
	return nil
}

func (r *opportunityRepository) Update(ctx context.Context, opp *models.Opportunity) error {
	if err := r.db.WithContext(ctx).Save(opp).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateOpportunity(ctx, opp.ID)
	return nil
}

// Delete hard-deletes the opportunity. Normal flow disables via IsActive;
// this path exists for admin cleanup.
func (r *opportunityRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.SavedOpportunity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Opportunity{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateOpportunity(ctx, id)
	return nil
}

// IncrementViewCount bumps the view counter atomically in SQL. Callers treat
// this as fire-and-forget.
func (r *opportunityRepository) IncrementViewCount(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateOpportunity(ctx, id)
	return nil
}

func (r *opportunityRepository) Save(ctx context.Context, userID, opportunityID uint) error {
	saved := models.SavedOpportunity{UserID: userID, OpportunityID: opportunityID}
	if err := r.db.WithContext(ctx).Create(&saved).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Opportunity already saved")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *opportunityRepository) Unsave(ctx context.Context, userID, opportunityID uint) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
		Delete(&models.SavedOpportunity{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Saved opportunity", opportunityID)
	}
	return nil
}

func (r *opportunityRepository) IsSaved(ctx context.Context, userID, opportunityID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SavedOpportunity{}).
		Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *opportunityRepository) ListSaved(ctx context.Context, userID uint) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity
	err := r.db.WithContext(ctx).
		Joins("JOIN saved_opportunities ON saved_opportunities.opportunity_id = opportunities.id").
		Where("saved_opportunities.user_id = ?", userID).
		Order("saved_opportunities.saved_at DESC").
		Find(&opportunities).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return opportunities, nil
}

// AddRating appends the rating and recomputes the opportunity's average in
// the same transaction.
func (r *opportunityRepository) AddRating(ctx context.Context, rating *models.Rating) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return err
		}
		var avg float64
		if err := tx.Model(&models.Rating{}).
			Where("opportunity_id = ?", rating.OpportunityID).
			Select("COALESCE(AVG(score), 0)").
			Scan(&avg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Opportunity{}).
			Where("id = ?", rating.OpportunityID).
			UpdateColumn("rating", avg).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateOpportunity(ctx, rating.OpportunityID)
	return nil
}
