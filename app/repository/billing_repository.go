package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meishibox/meishibox/app/models"
)

// billingRepository implements the BillingRepository interface
type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a new billing repository instance
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

// GetBillingByUserID retrieves a user's billing record
func (r *billingRepository) GetBillingByUserID(userID uint) (*models.UserBilling, error) {
	var billing models.UserBilling
	err := r.db.Where("user_id = ?", userID).First(&billing).Error
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

// GetBillingByCustomerID retrieves a billing record by its Stripe customer id
func (r *billingRepository) GetBillingByCustomerID(customerID string) (*models.UserBilling, error) {
	var billing models.UserBilling
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&billing).Error
	if err != nil {
		return nil, err
	}
	return &billing, nil
}

// EnsureBilling returns the user's billing record, creating it with the given
// customer id when the user has none yet.
func (r *billingRepository) EnsureBilling(userID uint, customerID string) (*models.UserBilling, error) {
	var billing models.UserBilling
	err := r.db.Where("user_id = ?", userID).First(&billing).Error
	if err == nil {
		return &billing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	billing = models.UserBilling{UserID: userID, StripeCustomerID: customerID}
	if err := r.db.Create(&billing).Error; err != nil {
		return nil, err
	}
	return &billing, nil
}

// GetSubscriptionByID retrieves a subscription by its Stripe subscription id
func (r *billingRepository) GetSubscriptionByID(subscriptionID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Where("subscription_id = ?", subscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCurrentSubscription retrieves the user's most recent subscription
func (r *billingRepository) GetCurrentSubscription(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.
		Joins("JOIN user_billings ON user_billings.id = user_subscriptions.user_billing_id").
		Where("user_billings.user_id = ?", userID).
		Order("user_subscriptions.id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription inserts or refreshes a subscription keyed by its Stripe id
func (r *billingRepository) UpsertSubscription(sub *models.UserSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_type", "status", "price", "term_from", "term_to",
			"cancel_at_period_end", "will_downgrade_to", "payment_intent_status",
			"updated_at",
		}),
	}).Create(sub).Error
}

// UpsertInvoice inserts or refreshes an invoice keyed by its Stripe id
func (r *billingRepository) UpsertInvoice(invoice *models.UserInvoice) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_subscription_id", "plan_type", "stripe_status", "total",
			"term_from", "term_to", "invoice_pdf", "paid_at", "updated_at",
		}),
	}).Create(invoice).Error
}

// RecordWebhookEvent stores an inbound webhook event exactly once. The second
// return value is false when the provider event id was already recorded.
func (r *billingRepository) RecordWebhookEvent(event *models.WebhookEvent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkWebhookProcessed stamps the event with its processing outcome
func (r *billingRepository) MarkWebhookProcessed(event *models.WebhookEvent, processingErr error) error {
	now := time.Now()
	event.ProcessedAt = &now
	if processingErr != nil {
		event.ProcessingError = processingErr.Error()
	} else {
		event.ProcessingError = ""
	}
	return r.db.Model(event).
		Select("processed_at", "processing_error").
		Updates(map[string]interface{}{
			"processed_at":     event.ProcessedAt,
			"processing_error": event.ProcessingError,
		}).Error
}
