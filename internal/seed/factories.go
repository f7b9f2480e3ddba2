// Package seed provides helpers to create demo and test data for the
// platform database. These helpers are intended for development only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"nuesa/internal/auth"
	"nuesa/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions tunes the generated dataset.
type SeedOptions struct {
	// SkipBcrypt stores a plain placeholder password instead of hashing.
	// Login will not work for those accounts; useful for bulk loads.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over the last N days.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *Factory) backdated() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
}

// CreateUser constructs and persists a sample user. All generated accounts
// share the password "Password123" so they can be logged into.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email:     gofakeit.Email(),
		FullName:  gofakeit.Name(),
		Phone:     gofakeit.Phone(),
		Bio:       gofakeit.Sentence(10),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsActive:  true,
		CreatedAt: f.backdated(),
	}

	if f.opts.SkipBcrypt {
		user.Password = "Password123"
	} else {
		hashed, err := auth.HashPassword("Password123")
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateProfile attaches an academic profile to the user.
func (f *Factory) CreateProfile(user *models.User) (*models.UserProfile, error) {
	gpa := 2.0 + f.rng.Float64()*3.0
	profile := &models.UserProfile{
		UserID:      user.ID,
		GPA:         &gpa,
		University:  gofakeit.Company() + " University",
		Major:       gofakeit.JobTitle(),
		YearOfStudy: fmt.Sprintf("%d", f.rng.Intn(5)+1),
		Skills:      gofakeit.JobDescriptor() + ", " + gofakeit.JobDescriptor(),
		Country:     gofakeit.Country(),
		State:       gofakeit.State(),
	}
	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

var opportunityTypes = []models.OpportunityType{
	models.OpportunityScholarship,
	models.OpportunityInternship,
	models.OpportunityGrant,
	models.OpportunityFellowship,
}

// CreateOpportunity constructs and persists a sample opportunity.
func (f *Factory) CreateOpportunity(overrides ...func(*models.Opportunity)) (*models.Opportunity, error) {
	amount := float64(gofakeit.Number(500, 50000))
	opp := &models.Opportunity{
		Title:               gofakeit.Sentence(5),
		Description:         gofakeit.Paragraph(2, 4, 8, "\n"),
		OpportunityType:     opportunityTypes[f.rng.Intn(len(opportunityTypes))],
		Organization:        gofakeit.Company(),
		OrganizationLogo:    fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		Amount:              &amount,
		Currency:            "USD",
		Deadline:            time.Now().Add(time.Duration(f.rng.Intn(120)+14) * 24 * time.Hour),
		EligibilityCriteria: gofakeit.Paragraph(1, 2, 6, "\n"),
		Requirements:        gofakeit.Paragraph(1, 2, 6, "\n"),
		Location:            gofakeit.City(),
		Duration:            fmt.Sprintf("%d months", f.rng.Intn(11)+1),
		ApplicationURL:      gofakeit.URL(),
		IsFeatured:          f.rng.Intn(5) == 0,
		IsActive:            true,
		CreatedAt:           f.backdated(),
	}

	for _, override := range overrides {
		override(opp)
	}

	if err := f.db.Create(opp).Error; err != nil {
		return nil, err
	}
	return opp, nil
}

var applicationStatuses = []models.ApplicationStatus{
	models.StatusDraft,
	models.StatusSubmitted,
	models.StatusUnderReview,
	models.StatusAccepted,
	models.StatusRejected,
}

// CreateApplication persists an application in a random lifecycle state with
// consistent timestamps for that state.
func (f *Factory) CreateApplication(user *models.User, opp *models.Opportunity, overrides ...func(*models.Application)) (*models.Application, error) {
	status := applicationStatuses[f.rng.Intn(len(applicationStatuses))]

	app := &models.Application{
		UserID:        user.ID,
		OpportunityID: opp.ID,
		Status:        status,
		ResponseData:  gofakeit.Paragraph(1, 3, 8, "\n"),
		CoverLetter:   gofakeit.Paragraph(2, 4, 10, "\n"),
		ResumeURL:     gofakeit.URL(),
		CreatedAt:     f.backdated(),
	}

	if status != models.StatusDraft {
		submittedAt := app.CreatedAt.Add(time.Duration(f.rng.Intn(48)+1) * time.Hour)
		app.SubmittedAt = &submittedAt
	}
	switch status {
	case models.StatusUnderReview, models.StatusAccepted, models.StatusRejected:
		reviewedAt := app.SubmittedAt.Add(time.Duration(f.rng.Intn(96)+1) * time.Hour)
		app.ReviewedAt = &reviewedAt
	}
	if status == models.StatusAccepted || status == models.StatusRejected {
		app.Feedback = gofakeit.Sentence(12)
	}

	for _, override := range overrides {
		override(app)
	}

	if err := f.db.Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// CreateRating persists a rating and refreshes the opportunity average.
func (f *Factory) CreateRating(user *models.User, opp *models.Opportunity) (*models.Rating, error) {
	rating := &models.Rating{
		UserID:        user.ID,
		OpportunityID: opp.ID,
		Score:         float64(f.rng.Intn(5) + 1),
		Review:        gofakeit.Sentence(15),
	}
	if err := f.db.Create(rating).Error; err != nil {
		return nil, err
	}

	var avg float64
	if err := f.db.Model(&models.Rating{}).
		Where("opportunity_id = ?", opp.ID).
		Select("AVG(score)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if err := f.db.Model(&models.Opportunity{}).
		Where("id = ?", opp.ID).
		UpdateColumn("rating", avg).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

// CreateNotification persists a sample notification for the user.
func (f *Factory) CreateNotification(user *models.User, opp *models.Opportunity) (*models.Notification, error) {
	n := &models.Notification{
		UserID:           user.ID,
		Title:            "New opportunity posted",
		Message:          fmt.Sprintf("%q might interest you.", opp.Title),
		NotificationType: models.NotificationNewOpportunity,
		IsRead:           f.rng.Intn(2) == 0,
	}
	n.RelatedOpportunityID = &opp.ID
	if err := f.db.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func logStep(format string, args ...any) {
	log.Printf(format, args...)
}
