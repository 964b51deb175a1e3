package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
)

func TestEvaluateGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		user       models.User
		interviews int64
		allowed    bool
		reason     string
	}{
		{
			name:    "premium always allowed",
			user:    models.User{SubscriptionStatus: models.SubscriptionPremium},
			allowed: true,
		},
		{
			name:       "premium allowed regardless of history",
			user:       models.User{SubscriptionStatus: models.SubscriptionPremium},
			interviews: 40,
			allowed:    true,
		},
		{
			name: "starter with unused credit allowed",
			user: models.User{
				SubscriptionStatus: models.SubscriptionStarter,
				StarterExpiresAt:   &future,
			},
			allowed: true,
		},
		{
			name: "starter past expiry rejected before credit check",
			user: models.User{
				SubscriptionStatus: models.SubscriptionStarter,
				StarterExpiresAt:   &past,
			},
			reason: ReasonStarterExpired,
		},
		{
			name: "starter with spent credit rejected",
			user: models.User{
				SubscriptionStatus:    models.SubscriptionStarter,
				StarterInterviewsUsed: 1,
				StarterExpiresAt:      &future,
			},
			reason: ReasonStarterLimitReached,
		},
		{
			name:    "free first interview allowed",
			user:    models.User{SubscriptionStatus: models.SubscriptionFree},
			allowed: true,
		},
		{
			name:       "free second interview rejected",
			user:       models.User{SubscriptionStatus: models.SubscriptionFree},
			interviews: 1,
			reason:     ReasonFreeLimitReached,
		},
		{
			name:       "unset status treated as free",
			user:       models.User{},
			interviews: 1,
			reason:     ReasonFreeLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateGate(&tt.user, tt.interviews, now)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}
