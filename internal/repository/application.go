package repository

import (
	"context"
	"errors"

	"nuesa/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines read operations for applications. Creation
// and state transitions are handled by the application service inside its
// own transactions so the check-then-mutate sequence stays atomic.
type ApplicationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	ListByUser(ctx context.Context, userID uint, status models.ApplicationStatus, limit, offset int) ([]models.Application, int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository returns a new ApplicationRepository implementation.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Preload("Opportunity").First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID uint, status models.ApplicationStatus, limit, offset int) ([]models.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var apps []models.Application
	if err := query.Preload("Opportunity").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&apps).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return apps, total, nil
}
