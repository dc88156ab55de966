package models

import "time"

// UserBilling binds a user to their Stripe customer. One row per user,
// created the first time a billing endpoint needs the customer.
type UserBilling struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	StripeCustomerID string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"stripe_customer_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	UserSubscriptions []UserSubscription `gorm:"foreignKey:UserBillingID;constraint:OnDelete:CASCADE" json:"-"`
}
