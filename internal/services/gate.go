package services

import (
	"time"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
)

// Machine-readable reasons carried on LIMIT_EXCEEDED errors so the client
// can render the right upgrade prompt.
const (
	ReasonStarterExpired      = "STARTER_EXPIRED"
	ReasonStarterLimitReached = "STARTER_LIMIT_REACHED"
	ReasonFreeLimitReached    = "FREE_LIMIT_REACHED"
)

type GateDecision struct {
	Allowed bool
	Reason  string
}

// EvaluateGate decides whether a user may start a new interview. Rules, in
// order: premium is always allowed; starter is rejected past its expiry,
// then past its single-interview credit; free (or unset) is rejected once
// any interview exists.
//
// This is advisory only: the authoritative starter check is the atomic
// credit consumption and the authoritative free check is the locked
// first-interview insert, both in the repository layer.
func EvaluateGate(u *models.User, interviewCount int64, now time.Time) GateDecision {
	switch u.SubscriptionStatus {
	case models.SubscriptionPremium:
		return GateDecision{Allowed: true}
	case models.SubscriptionStarter:
		if u.StarterExpiresAt != nil && u.StarterExpiresAt.Before(now) {
			return GateDecision{Reason: ReasonStarterExpired}
		}
		if u.StarterInterviewsUsed >= 1 {
			return GateDecision{Reason: ReasonStarterLimitReached}
		}
		return GateDecision{Allowed: true}
	default:
		if interviewCount >= 1 {
			return GateDecision{Reason: ReasonFreeLimitReached}
		}
		return GateDecision{Allowed: true}
	}
}
