package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nuesa/internal/auth"
	"nuesa/internal/middleware"
	"nuesa/internal/models"
	"nuesa/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationService enforces the application lifecycle:
// draft -> submitted -> under_review -> accepted|rejected, with
// submitted|under_review -> withdrawn. Every check-then-mutate sequence runs
// in a single transaction with the application row locked, so two concurrent
// submits on the same application cannot both succeed.
type ApplicationService struct {
	db               *gorm.DB
	appRepo          repository.ApplicationRepository
	opportunityRepo  repository.OpportunityRepository
	notificationRepo repository.NotificationRepository
}

// CreateApplicationInput is the payload for starting a draft application.
type CreateApplicationInput struct {
	OpportunityID uint   `json:"opportunity_id"`
	ResponseData  string `json:"response_data"`
	CoverLetter   string `json:"cover_letter"`
	ResumeURL     string `json:"resume_url"`
}

// UpdateApplicationInput enumerates the updatable fields explicitly. Nil
// means "leave unchanged". Status and Feedback are admin-gated.
type UpdateApplicationInput struct {
	ResponseData *string                   `json:"response_data"`
	CoverLetter  *string                   `json:"cover_letter"`
	ResumeURL    *string                   `json:"resume_url"`
	Feedback     *string                   `json:"feedback"`
	Status       *models.ApplicationStatus `json:"status"`
}

// NewApplicationService returns an ApplicationService using the given
// dependencies.
func NewApplicationService(
	db *gorm.DB,
	appRepo repository.ApplicationRepository,
	opportunityRepo repository.OpportunityRepository,
	notificationRepo repository.NotificationRepository,
) *ApplicationService {
	return &ApplicationService{
		db:               db,
		appRepo:          appRepo,
		opportunityRepo:  opportunityRepo,
		notificationRepo: notificationRepo,
	}
}

// lockForUpdate applies row-level locking where the dialect supports it.
// SQLite serializes writers on its own and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Create starts a draft application for the principal. The (user,
// opportunity) pair is also guarded by a unique index, so a concurrent
// duplicate insert fails even when both requests pass the pre-check.
func (s *ApplicationService) Create(ctx context.Context, principal auth.Principal, in CreateApplicationInput) (*models.Application, error) {
	if in.OpportunityID == 0 {
		return nil, models.NewValidationError("opportunity_id is required")
	}

	if _, err := s.opportunityRepo.GetByID(ctx, in.OpportunityID); err != nil {
		return nil, err
	}

	app := &models.Application{
		UserID:        principal.UserID,
		OpportunityID: in.OpportunityID,
		Status:        models.StatusDraft,
		ResponseData:  in.ResponseData,
		CoverLetter:   in.CoverLetter,
		ResumeURL:     in.ResumeURL,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Application{}).
			Where("user_id = ? AND opportunity_id = ?", principal.UserID, in.OpportunityID).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count > 0 {
			return models.NewConflictError("You have already applied for this opportunity")
		}
		if err := tx.Create(app).Error; err != nil {
			if isDuplicateKey(err) {
				return models.NewConflictError("You have already applied for this opportunity")
			}
			return models.NewInternalError(err)
		}
		return tx.Model(&models.Opportunity{}).
			Where("id = ?", in.OpportunityID).
			UpdateColumn("application_count", gorm.Expr("application_count + 1")).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	return app, nil
}

// Get returns the application detail to its owner or an admin.
func (s *ApplicationService) Get(ctx context.Context, principal auth.Principal, id uint) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != principal.UserID && !principal.IsAdmin {
		return nil, models.NewForbiddenError("Not authorized to view this application")
	}
	return app, nil
}

// List returns the principal's own applications.
func (s *ApplicationService) List(ctx context.Context, principal auth.Principal, status models.ApplicationStatus, limit, offset int) ([]models.Application, int64, error) {
	if status != "" && !models.ValidApplicationStatus(status) {
		return nil, 0, models.NewValidationError("Unknown application status")
	}
	return s.appRepo.ListByUser(ctx, principal.UserID, status, limit, offset)
}

// Update applies a typed partial update. Non-status fields are open to the
// owner and admins; status and feedback changes require an admin principal.
// Setting status to submitted stamps submitted_at; moving into review or a
// decision stamps reviewed_at.
func (s *ApplicationService) Update(ctx context.Context, principal auth.Principal, id uint, in UpdateApplicationInput) (*models.Application, error) {
	if in.Status != nil && !models.ValidApplicationStatus(*in.Status) {
		return nil, models.NewValidationError("Unknown application status")
	}

	var updated models.Application
	statusChanged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := lockForUpdate(tx).First(&app, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Application", id)
			}
			return models.NewInternalError(err)
		}

		if app.UserID != principal.UserID && !principal.IsAdmin {
			return models.NewForbiddenError("Not authorized to update this application")
		}

		if in.ResponseData != nil {
			app.ResponseData = *in.ResponseData
		}
		if in.CoverLetter != nil {
			app.CoverLetter = *in.CoverLetter
		}
		if in.ResumeURL != nil {
			app.ResumeURL = *in.ResumeURL
		}
		if in.Feedback != nil {
			if !principal.IsAdmin {
				return models.NewForbiddenError("Only admins can set feedback")
			}
			app.Feedback = *in.Feedback
		}
		if in.Status != nil {
			// The status field itself is admin territory, even when the
			// value would not change anything.
			if !principal.IsAdmin {
				return models.NewForbiddenError("Only admins can change application status")
			}
			if *in.Status != app.Status {
				now := time.Now().UTC()
				switch *in.Status {
				case models.StatusSubmitted:
					app.SubmittedAt = &now
				case models.StatusUnderReview, models.StatusAccepted, models.StatusRejected:
					app.ReviewedAt = &now
				}
				app.Status = *in.Status
				statusChanged = true
			}
		}

		if err := tx.Save(&app).Error; err != nil {
			return models.NewInternalError(err)
		}
		updated = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		middleware.ApplicationTransitions.WithLabelValues(string(updated.Status)).Inc()
	}

	// Status was changed by an admin on someone else's application: tell the
	// owner. Best-effort; the update itself already committed.
	if statusChanged && principal.IsAdmin && updated.UserID != principal.UserID {
		s.notifyStatusChange(ctx, &updated)
	}

	return &updated, nil
}

// Submit moves the owner's draft application to submitted and stamps the
// submission time. Any other source state is an invalid transition.
func (s *ApplicationService) Submit(ctx context.Context, principal auth.Principal, id uint) (*models.Application, error) {
	return s.transition(ctx, principal, id, models.StatusSubmitted, func(app *models.Application) error {
		if app.Status != models.StatusDraft {
			return models.NewInvalidTransitionError(app.Status, models.StatusSubmitted)
		}
		now := time.Now().UTC()
		app.Status = models.StatusSubmitted
		app.SubmittedAt = &now
		return nil
	})
}

// Withdraw moves the owner's submitted or under-review application to
// withdrawn.
func (s *ApplicationService) Withdraw(ctx context.Context, principal auth.Principal, id uint) (*models.Application, error) {
	return s.transition(ctx, principal, id, models.StatusWithdrawn, func(app *models.Application) error {
		if !app.Status.CanTransitionTo(models.StatusWithdrawn) {
			return models.NewInvalidTransitionError(app.Status, models.StatusWithdrawn)
		}
		app.Status = models.StatusWithdrawn
		return nil
	})
}

// transition runs an owner-only state change under a row lock.
func (s *ApplicationService) transition(ctx context.Context, principal auth.Principal, id uint, target models.ApplicationStatus, mutate func(*models.Application) error) (*models.Application, error) {
	var updated models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := lockForUpdate(tx).First(&app, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Application", id)
			}
			return models.NewInternalError(err)
		}

		if app.UserID != principal.UserID {
			return models.NewForbiddenError("Not authorized")
		}

		if err := mutate(&app); err != nil {
			return err
		}

		if err := tx.Save(&app).Error; err != nil {
			return models.NewInternalError(err)
		}
		updated = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	middleware.ApplicationTransitions.WithLabelValues(string(target)).Inc()
	return &updated, nil
}

// Delete removes the owner's application while it is still a draft.
func (s *ApplicationService) Delete(ctx context.Context, principal auth.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := lockForUpdate(tx).First(&app, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Application", id)
			}
			return models.NewInternalError(err)
		}

		if app.UserID != principal.UserID {
			return models.NewForbiddenError("Not authorized to delete this application")
		}

		if app.Status != models.StatusDraft {
			return models.NewInvalidStateError("Only draft applications can be deleted")
		}

		if err := tx.Delete(&models.Application{}, app.ID).Error; err != nil {
			return models.NewInternalError(err)
		}
		return tx.Model(&models.Opportunity{}).
			Where("id = ? AND application_count > 0", app.OpportunityID).
			UpdateColumn("application_count", gorm.Expr("application_count - 1")).Error
	})
}

func (s *ApplicationService) notifyStatusChange(ctx context.Context, app *models.Application) {
	title := "Application status updated"
	message := fmt.Sprintf("Your application is now %s.", app.Status)
	if opp, err := s.opportunityRepo.GetByID(ctx, app.OpportunityID); err == nil {
		message = fmt.Sprintf("Your application for %q is now %s.", opp.Title, app.Status)
	}

	n := &models.Notification{
		UserID:               app.UserID,
		Title:                title,
		Message:              message,
		NotificationType:     models.NotificationApplicationStatus,
		RelatedOpportunityID: &app.OpportunityID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create status notification",
			"application_id", app.ID, "error", err.Error())
	}
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
