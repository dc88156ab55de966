package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
)

// CardFilter carries the optional list filters for business cards.
type CardFilter struct {
	Query           string
	TagIDs          []uint
	MeetingDateFrom *time.Time
	MeetingDateTo   *time.Time
}

// CardPage is one page of business cards plus pagination metadata.
type CardPage struct {
	Cards       []models.BusinessCard
	CurrentPage int
	TotalCount  int64
	TotalPages  int
	IsLastPage  bool
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUID(uid string) (*models.User, error)
	Update(user *models.User) error
}

// BusinessCardRepository defines the interface for business card data operations
type BusinessCardRepository interface {
	Create(card *models.BusinessCard) error
	CreateInTx(card *models.BusinessCard, fn func(tx *gorm.DB, card *models.BusinessCard) error) error
	GetByID(id uint) (*models.BusinessCard, error)
	GetByCode(userID uint, code string) (*models.BusinessCard, error)
	List(userID uint, page int, filter CardFilter) (*CardPage, error)
	ListAll(userID uint) ([]models.BusinessCard, error)
	Update(card *models.BusinessCard) error
	UpdateWithTags(card *models.BusinessCard, tags []models.Tag) error
	Delete(card *models.BusinessCard) error
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(tag *models.Tag) error
	GetByID(userID, id uint) (*models.Tag, error)
	GetByName(userID uint, name string) (*models.Tag, error)
	FindOrCreateByName(tx *gorm.DB, userID uint, name string) (*models.Tag, error)
	ListByUser(userID uint) ([]models.Tag, error)
	Update(tag *models.Tag) error
	Delete(tag *models.Tag) error
	RecalculateCounters(userID uint) error
}

// BillingRepository defines the interface for billing data operations
type BillingRepository interface {
	GetBillingByUserID(userID uint) (*models.UserBilling, error)
	GetBillingByCustomerID(customerID string) (*models.UserBilling, error)
	EnsureBilling(userID uint, customerID string) (*models.UserBilling, error)
	GetSubscriptionByID(subscriptionID string) (*models.UserSubscription, error)
	GetCurrentSubscription(userID uint) (*models.UserSubscription, error)
	UpsertSubscription(sub *models.UserSubscription) error
	UpsertInvoice(invoice *models.UserInvoice) error
	RecordWebhookEvent(event *models.WebhookEvent) (bool, error)
	MarkWebhookProcessed(event *models.WebhookEvent, processingErr error) error
}

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	BusinessCard BusinessCardRepository
	Tag          TagRepository
	Billing      BillingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		BusinessCard: NewBusinessCardRepository(db),
		Tag:          NewTagRepository(db),
		Billing:      NewBillingRepository(db),
	}
}
