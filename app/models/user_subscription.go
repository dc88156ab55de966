package models

import "time"

// Subscription status strings as reported by Stripe. This is a mirror, not an
// internal state machine; unknown statuses are stored as-is.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
)

// UserSubscription mirrors a Stripe subscription object for one billing
// account. Rows are written only by the billing service action methods (which
// re-sync from the provider response) and by webhook reconciliation.
type UserSubscription struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	UserBillingID       uint        `gorm:"index;not null" json:"user_billing_id"`
	UserBilling         UserBilling `gorm:"foreignKey:UserBillingID" json:"-"`
	SubscriptionID      string      `gorm:"type:varchar(191);uniqueIndex;not null" json:"subscription_id"`
	PlanType            string      `gorm:"type:varchar(20);not null;default:'free'" json:"plan_type"`
	Status              string      `gorm:"type:varchar(32)" json:"status"`
	Price               int64       `gorm:"type:bigint" json:"price"`
	TermFrom            *time.Time  `gorm:"type:datetime" json:"term_from"`
	TermTo              *time.Time  `gorm:"type:datetime" json:"term_to"`
	CancelAtPeriodEnd   bool        `gorm:"default:false" json:"cancel_at_period_end"`
	WillDowngradeTo     *string     `gorm:"type:varchar(20)" json:"will_downgrade_to"`
	PaymentIntentStatus string      `gorm:"type:varchar(32)" json:"payment_intent_status"`
	CreatedAt           time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the mirrored provider status is active.
func (s *UserSubscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
