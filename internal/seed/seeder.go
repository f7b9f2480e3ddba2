package seed

import (
	"fmt"

	"nuesa/internal/auth"
	"nuesa/internal/models"

	"gorm.io/gorm"
)

// Seeder orchestrates demo dataset creation.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder with default options.
func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll wipes every domain table. Order matters for foreign keys.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.Notification{},
		&models.Rating{},
		&models.SavedOpportunity{},
		&models.Application{},
		&models.UserProfile{},
		&models.Opportunity{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear table %T: %w", table, err)
		}
	}
	logStep("cleared all tables")
	return nil
}

// SeedDemo populates the database with a connected demo dataset: users with
// profiles, an opportunity catalog, applications across the lifecycle, saves,
// ratings and notifications. Returns the created users.
func (s *Seeder) SeedDemo(numUsers, numOpportunities int) ([]*models.User, error) {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := s.factory.CreateProfile(user); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		users = append(users, user)
	}
	logStep("created %d users with profiles", len(users))

	opps := make([]*models.Opportunity, 0, numOpportunities)
	for i := 0; i < numOpportunities; i++ {
		opp, err := s.factory.CreateOpportunity()
		if err != nil {
			return nil, fmt.Errorf("failed to create opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	logStep("created %d opportunities", len(opps))

	// Each user applies to a couple of distinct opportunities.
	applications := 0
	for _, user := range users {
		for _, idx := range s.factory.rng.Perm(len(opps))[:min(3, len(opps))] {
			opp := opps[idx]
			if _, err := s.factory.CreateApplication(user, opp); err != nil {
				return nil, fmt.Errorf("failed to create application: %w", err)
			}
			s.db.Model(opp).UpdateColumn("application_count", gorm.Expr("application_count + 1"))
			applications++
		}
	}
	logStep("created %d applications", applications)

	// Saves, ratings and notifications for a subset of users.
	for _, user := range users {
		if len(opps) == 0 {
			break
		}
		opp := opps[s.factory.rng.Intn(len(opps))]
		s.db.Create(&models.SavedOpportunity{UserID: user.ID, OpportunityID: opp.ID})
		if _, err := s.factory.CreateRating(user, opp); err != nil {
			return nil, fmt.Errorf("failed to create rating: %w", err)
		}
		if _, err := s.factory.CreateNotification(user, opp); err != nil {
			return nil, fmt.Errorf("failed to create notification: %w", err)
		}
	}
	logStep("created saves, ratings and notifications")

	return users, nil
}

// SeedAdmin creates a known admin account for local development.
func (s *Seeder) SeedAdmin(email, password string) (*models.User, error) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		Email:      email,
		FullName:   "Platform Admin",
		Password:   hashed,
		IsActive:   true,
		IsAdmin:    true,
		IsVerified: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, err
	}
	logStep("created admin account %s", email)
	return admin, nil
}
