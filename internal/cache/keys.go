package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix        = "user:%d"
	opportunityKeyPrefix = "opportunity:%d"
	featuredKey          = "opportunities:featured"
)

const (
	UserTTL        = 5 * time.Minute
	OpportunityTTL = 10 * time.Minute
	FeaturedTTL    = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func OpportunityKey(opportunityID uint) string {
	return fmt.Sprintf(opportunityKeyPrefix, opportunityID)
}

func FeaturedKey() string {
	return featuredKey
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateOpportunity(ctx context.Context, opportunityID uint) {
	Invalidate(ctx, OpportunityKey(opportunityID))
	Invalidate(ctx, featuredKey)
}
