package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionFree    SubscriptionStatus = "free"
	SubscriptionStarter SubscriptionStatus = "starter"
	SubscriptionPremium SubscriptionStatus = "premium"
)

type User struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:text" json:"-"`

	SubscriptionStatus    SubscriptionStatus `gorm:"column:subscription_status;type:text;default:free" json:"subscription_status"`
	StarterInterviewsUsed int                `gorm:"column:starter_interviews_used;type:integer;default:0" json:"starter_interviews_used"`
	StarterExpiresAt      *time.Time         `gorm:"column:starter_expires_at;type:timestamptz" json:"starter_expires_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (User) TableName() string { return "users" }
