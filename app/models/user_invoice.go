package models

import "time"

// UserInvoice is a reconciled record of a Stripe invoice, upserted by invoice
// webhook events keyed on the external invoice identifier.
type UserInvoice struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	UserBillingID      uint             `gorm:"index;not null" json:"user_billing_id"`
	UserBilling        UserBilling      `gorm:"foreignKey:UserBillingID" json:"-"`
	UserSubscriptionID uint             `gorm:"index;not null" json:"user_subscription_id"`
	UserSubscription   UserSubscription `gorm:"foreignKey:UserSubscriptionID" json:"-"`
	StripeInvoiceID    string           `gorm:"type:varchar(191);uniqueIndex;not null" json:"stripe_invoice_id"`
	PlanType           string           `gorm:"type:varchar(20)" json:"plan_type"`
	StripeStatus       string           `gorm:"type:varchar(32)" json:"stripe_status"`
	Total              int64            `gorm:"type:bigint" json:"total"`
	TermFrom           *time.Time       `gorm:"type:datetime" json:"term_from"`
	TermTo             *time.Time       `gorm:"type:datetime" json:"term_to"`
	InvoicePDF         string           `gorm:"type:varchar(512)" json:"invoice_pdf"`
	PaidAt             *time.Time       `gorm:"type:datetime" json:"paid_at"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
