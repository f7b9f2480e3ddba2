package service

import (
	"context"
	"testing"
	"time"

	"nuesa/internal/auth"
	"nuesa/internal/models"
	"nuesa/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOppService(db *gorm.DB) *OpportunityService {
	return NewOpportunityService(repository.NewOpportunityRepository(db))
}

func validOpportunityInput() OpportunityInput {
	return OpportunityInput{
		Title:               "Summer Internship",
		Description:         "Twelve weeks of engineering work",
		OpportunityType:     models.OpportunityInternship,
		Organization:        "Acme Corp",
		Deadline:            time.Now().Add(30 * 24 * time.Hour),
		EligibilityCriteria: "Penultimate year students",
	}
}

func TestCreateOpportunity(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)

	opp, err := svc.Create(context.Background(), validOpportunityInput())
	require.NoError(t, err)
	assert.NotZero(t, opp.ID)
	assert.True(t, opp.IsActive)
	assert.Equal(t, "USD", opp.Currency)
}

func TestCreateOpportunityValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	mutations := []struct {
		name   string
		mutate func(*OpportunityInput)
	}{
		{"missing title", func(in *OpportunityInput) { in.Title = " " }},
		{"missing description", func(in *OpportunityInput) { in.Description = "" }},
		{"bad type", func(in *OpportunityInput) { in.OpportunityType = "bursary" }},
		{"missing organization", func(in *OpportunityInput) { in.Organization = "" }},
		{"missing deadline", func(in *OpportunityInput) { in.Deadline = time.Time{} }},
		{"missing eligibility", func(in *OpportunityInput) { in.EligibilityCriteria = "" }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			in := validOpportunityInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.True(t, models.HasCode(err, models.CodeValidation))
		})
	}
}

func TestGetOpportunityBumpsViews(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)

	got, err := svc.Get(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	var fresh models.Opportunity
	require.NoError(t, db.First(&fresh, created.ID).Error)
	assert.Equal(t, 1, fresh.ViewCount)
}

func TestInactiveOpportunityHidden(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)
	require.NoError(t, db.Model(created).Update("is_active", false).Error)

	_, err = svc.Get(ctx, nil, created.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	user := &auth.Principal{UserID: 1}
	_, err = svc.Get(ctx, user, created.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	admin := &auth.Principal{UserID: 2, IsAdmin: true}
	_, err = svc.Get(ctx, admin, created.ID)
	assert.NoError(t, err)
}

func TestListOpportunitiesFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	in := validOpportunityInput()
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	in2 := validOpportunityInput()
	in2.Title = "Research Grant for Robotics"
	in2.OpportunityType = models.OpportunityGrant
	in2.IsFeatured = true
	_, err = svc.Create(ctx, in2)
	require.NoError(t, err)

	all, total, err := svc.List(ctx, nil, repository.OpportunityFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	grants, total, err := svc.List(ctx, nil, repository.OpportunityFilter{Type: models.OpportunityGrant}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.OpportunityGrant, grants[0].OpportunityType)

	robotics, _, err := svc.List(ctx, nil, repository.OpportunityFilter{Keyword: "robotics"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, robotics, 1)
	assert.Contains(t, robotics[0].Title, "Robotics")

	featured, err := svc.Featured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.True(t, featured[0].IsFeatured)

	_, _, err = svc.List(ctx, nil, repository.OpportunityFilter{Type: "bursary"}, 10, 0)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestListInactiveRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)
	require.NoError(t, db.Model(created).Update("is_active", false).Error)

	filter := repository.OpportunityFilter{IncludeInactive: true}

	_, total, err := svc.List(ctx, nil, filter, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	admin := &auth.Principal{UserID: 1, IsAdmin: true}
	_, total, err = svc.List(ctx, admin, filter, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSaveUnsaveOpportunity(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "a@example.com", false)
	principal := principalFor(user)

	opp, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)

	require.NoError(t, svc.SaveOpportunity(ctx, principal, opp.ID))

	// Saving twice is rejected.
	err = svc.SaveOpportunity(ctx, principal, opp.ID)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	saved, err := svc.ListSaved(ctx, principal)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, opp.ID, saved[0].ID)

	require.NoError(t, svc.UnsaveOpportunity(ctx, principal, opp.ID))

	saved, err = svc.ListSaved(ctx, principal)
	require.NoError(t, err)
	assert.Empty(t, saved)

	// Unsaving something not saved is a not found.
	err = svc.UnsaveOpportunity(ctx, principal, opp.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRateOpportunity(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "a@example.com", false)
	bob := createTestUser(t, db, "b@example.com", false)

	opp, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)

	_, err = svc.Rate(ctx, principalFor(alice), opp.ID, RateOpportunityInput{Score: 4})
	require.NoError(t, err)
	_, err = svc.Rate(ctx, principalFor(bob), opp.ID, RateOpportunityInput{Score: 2, Review: "meh"})
	require.NoError(t, err)

	var fresh models.Opportunity
	require.NoError(t, db.First(&fresh, opp.ID).Error)
	assert.InDelta(t, 3.0, fresh.Rating, 0.001)

	_, err = svc.Rate(ctx, principalFor(alice), opp.ID, RateOpportunityInput{Score: 0})
	assert.True(t, models.HasCode(err, models.CodeValidation))
	_, err = svc.Rate(ctx, principalFor(alice), opp.ID, RateOpportunityInput{Score: 6})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestUpdateOpportunityPreservesCounters(t *testing.T) {
	db := setupTestDB(t)
	svc := newOppService(db)
	ctx := context.Background()

	opp, err := svc.Create(ctx, validOpportunityInput())
	require.NoError(t, err)
	require.NoError(t, db.Model(opp).Updates(map[string]any{"view_count": 7, "application_count": 3}).Error)

	in := validOpportunityInput()
	in.Title = "Renamed Internship"
	updated, err := svc.Update(ctx, opp.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Internship", updated.Title)
	assert.Equal(t, 7, updated.ViewCount)
	assert.Equal(t, 3, updated.ApplicationCount)
}
