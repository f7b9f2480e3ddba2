package seed

import (
	"testing"

	"nuesa/internal/auth"
	"nuesa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Opportunity{},
		&models.Application{},
		&models.SavedOpportunity{},
		&models.Rating{},
		&models.Notification{},
	))
	return db
}

func TestSeedDemo(t *testing.T) {
	db := setupSeedDB(t)
	s := NewSeeder(db, SeedOptions{SkipBcrypt: true})

	users, err := s.SeedDemo(5, 8)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	var userCount, oppCount, appCount, profileCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Opportunity{}).Count(&oppCount)
	db.Model(&models.Application{}).Count(&appCount)
	db.Model(&models.UserProfile{}).Count(&profileCount)

	assert.Equal(t, int64(5), userCount)
	assert.Equal(t, int64(8), oppCount)
	assert.Equal(t, int64(15), appCount)
	assert.Equal(t, int64(5), profileCount)

	// Dataset respects the one-application-per-pair rule by construction.
	var dupes int64
	db.Raw(`SELECT COUNT(*) FROM (
		SELECT user_id, opportunity_id FROM applications
		GROUP BY user_id, opportunity_id HAVING COUNT(*) > 1
	)`).Scan(&dupes)
	assert.Zero(t, dupes)
}

func TestSeedAdmin(t *testing.T) {
	db := setupSeedDB(t)
	s := NewSeeder(db, SeedOptions{})

	admin, err := s.SeedAdmin("admin@nuesa.dev", "Admin12345")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsActive)
	assert.True(t, auth.CheckPassword("Admin12345", admin.Password))
}

func TestClearAll(t *testing.T) {
	db := setupSeedDB(t)
	s := NewSeeder(db, SeedOptions{SkipBcrypt: true})

	_, err := s.SeedDemo(3, 4)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())

	var total int64
	for _, model := range []any{
		&models.User{}, &models.Opportunity{}, &models.Application{},
		&models.Rating{}, &models.Notification{},
	} {
		var count int64
		db.Model(model).Count(&count)
		total += count
	}
	assert.Zero(t, total)
}
