package viewmodel

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/billing"
	"github.com/meishibox/meishibox/internal/pkg/storage"
)

// Resource is one JSON:API-shaped resource object.
type Resource struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Attributes interface{} `json:"attributes"`
}

// Document wraps a single resource.
type Document struct {
	Data Resource `json:"data"`
}

// ListDocument wraps a resource collection.
type ListDocument struct {
	Data []Resource `json:"data"`
}

// CardListDocument is the paginated card listing response. The pagination
// state sits next to the collection rather than under a meta key.
type CardListDocument struct {
	BusinessCards []Resource `json:"business_cards"`
	CurrentPage   int        `json:"current_page"`
	TotalCount    int64      `json:"total_count"`
	TotalPages    int        `json:"total_pages"`
	IsLastPage    bool       `json:"is_last_page"`
}

// UserAttributes is the serialized user.
type UserAttributes struct {
	UID       string            `json:"uid"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Providers models.StringList `json:"providers"`
	CreatedAt time.Time         `json:"created_at"`
}

// TagAttributes is the serialized tag.
type TagAttributes struct {
	Name               string    `json:"name"`
	Color              string    `json:"color"`
	Description        string    `json:"description"`
	BusinessCardsCount int       `json:"business_cards_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// CardTag is a tag embedded in a card document.
type CardTag struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Color              string `json:"color"`
	Description        string `json:"description"`
	BusinessCardsCount int    `json:"business_cards_count"`
}

// CardAttributes is the serialized business card.
type CardAttributes struct {
	Code              string     `json:"code"`
	Status            string     `json:"status"`
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	FirstNamePhonetic *string    `json:"first_name_phonetic"`
	LastNamePhonetic  *string    `json:"last_name_phonetic"`
	Company           *string    `json:"company"`
	JobTitle          *string    `json:"job_title"`
	Department        *string    `json:"department"`
	Website           *string    `json:"website"`
	Address           *string    `json:"address"`
	Email             *string    `json:"email"`
	MobilePhone       *string    `json:"mobile_phone"`
	HomePhone         *string    `json:"home_phone"`
	Fax               *string    `json:"fax"`
	Notes             *string    `json:"notes"`
	MeetingDate       *time.Time `json:"meeting_date"`
	FrontImageURL     string     `json:"front_image_url"`
	BackImageURL      string     `json:"back_image_url"`
	Tags              []CardTag  `json:"tags"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SubscriptionAttributes is the serialized subscription mirror record.
type SubscriptionAttributes struct {
	PlanType            string     `json:"plan_type"`
	Status              string     `json:"status"`
	Price               int64      `json:"price"`
	TermFrom            *time.Time `json:"term_from"`
	TermTo              *time.Time `json:"term_to"`
	CancelAtPeriodEnd   bool       `json:"cancel_at_period_end"`
	WillDowngradeTo     *string    `json:"will_downgrade_to"`
	PaymentIntentStatus string     `json:"payment_intent_status"`
}

// User serializes a user document.
func User(user *models.User) Document {
	return Document{Data: Resource{
		ID:   strconv.FormatUint(uint64(user.ID), 10),
		Type: "user",
		Attributes: UserAttributes{
			UID:       user.UID,
			Email:     user.Email,
			Name:      user.Name,
			Providers: user.Providers,
			CreatedAt: user.CreatedAt,
		},
	}}
}

// Tag serializes a tag document.
func Tag(tag *models.Tag) Document {
	return Document{Data: tagResource(tag)}
}

// Tags serializes a tag collection.
func Tags(tags []models.Tag) ListDocument {
	data := make([]Resource, 0, len(tags))
	for i := range tags {
		data = append(data, tagResource(&tags[i]))
	}
	return ListDocument{Data: data}
}

func tagResource(tag *models.Tag) Resource {
	return Resource{
		ID:   strconv.FormatUint(uint64(tag.ID), 10),
		Type: "tag",
		Attributes: TagAttributes{
			Name:               tag.Name,
			Color:              tag.Color,
			Description:        tag.Description,
			BusinessCardsCount: tag.BusinessCardsCount,
			CreatedAt:          tag.CreatedAt,
		},
	}
}

// Subscription serializes the current subscription document. The synthetic
// free record has no id and serializes with an empty one.
func Subscription(sub *models.UserSubscription) Document {
	id := ""
	if sub.ID != 0 {
		id = strconv.FormatUint(uint64(sub.ID), 10)
	}
	return Document{Data: Resource{
		ID:   id,
		Type: "subscription",
		Attributes: SubscriptionAttributes{
			PlanType:            sub.PlanType,
			Status:              sub.Status,
			Price:               sub.Price,
			TermFrom:            sub.TermFrom,
			TermTo:              sub.TermTo,
			CancelAtPeriodEnd:   sub.CancelAtPeriodEnd,
			WillDowngradeTo:     sub.WillDowngradeTo,
			PaymentIntentStatus: sub.PaymentIntentStatus,
		},
	}}
}

// SubscriptionWithIntent is the create-subscription response: the checkout
// confirmation secret at the top level plus the mirrored subscription.
type SubscriptionWithIntent struct {
	Type         string   `json:"type,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Data         Resource `json:"data"`
}

// NewSubscriptionWithIntent builds the create-subscription response.
func NewSubscriptionWithIntent(sub *models.UserSubscription, intent *billing.CheckoutIntent) SubscriptionWithIntent {
	doc := SubscriptionWithIntent{Data: Subscription(sub).Data}
	if intent != nil {
		doc.Type = intent.Type
		doc.ClientSecret = intent.ClientSecret
	}
	return doc
}

// CardSerializer builds card documents, presigning image URLs on the fly.
type CardSerializer struct {
	store storage.BlobStore
}

// NewCardSerializer creates a card serializer backed by the given store
func NewCardSerializer(store storage.BlobStore) *CardSerializer {
	return &CardSerializer{store: store}
}

// Card serializes a single card document.
func (s *CardSerializer) Card(ctx context.Context, card *models.BusinessCard) Document {
	return Document{Data: s.cardResource(ctx, card)}
}

// Cards serializes one page of cards with its pagination state.
func (s *CardSerializer) Cards(ctx context.Context, page *repository.CardPage) CardListDocument {
	data := make([]Resource, 0, len(page.Cards))
	for i := range page.Cards {
		data = append(data, s.cardResource(ctx, &page.Cards[i]))
	}
	return CardListDocument{
		BusinessCards: data,
		CurrentPage:   page.CurrentPage,
		TotalCount:    page.TotalCount,
		TotalPages:    page.TotalPages,
		IsLastPage:    page.IsLastPage,
	}
}

func (s *CardSerializer) cardResource(ctx context.Context, card *models.BusinessCard) Resource {
	tags := make([]CardTag, 0, len(card.Tags))
	for _, tag := range card.Tags {
		tags = append(tags, CardTag{
			ID:                 tag.ID,
			Name:               tag.Name,
			Color:              tag.Color,
			Description:        tag.Description,
			BusinessCardsCount: tag.BusinessCardsCount,
		})
	}

	return Resource{
		ID:   card.Code,
		Type: "business_card",
		Attributes: CardAttributes{
			Code:              card.Code,
			Status:            string(card.Status),
			FirstName:         card.FirstName,
			LastName:          card.LastName,
			FirstNamePhonetic: card.FirstNamePhonetic,
			LastNamePhonetic:  card.LastNamePhonetic,
			Company:           card.Company,
			JobTitle:          card.JobTitle,
			Department:        card.Department,
			Website:           card.Website,
			Address:           card.Address,
			Email:             card.Email,
			MobilePhone:       card.MobilePhone,
			HomePhone:         card.HomePhone,
			Fax:               card.Fax,
			Notes:             card.Notes,
			MeetingDate:       card.MeetingDate,
			FrontImageURL:     s.presign(ctx, card.FrontImageKey),
			BackImageURL:      s.presign(ctx, card.BackImageKey),
			Tags:              tags,
			CreatedAt:         card.CreatedAt,
			UpdatedAt:         card.UpdatedAt,
		},
	}
}

// presign converts an object key to a time-limited URL; an empty key or a
// presign failure serializes as an empty URL rather than failing the request.
func (s *CardSerializer) presign(ctx context.Context, key string) string {
	if key == "" || s.store == nil {
		return ""
	}
	url, err := s.store.PresignURL(ctx, key)
	if err != nil {
		log.Errorf("[Viewmodel] Presign %s failed: %v", key, err)
		return ""
	}
	return url
}
