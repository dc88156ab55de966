package viewmodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/billing"
)

type staticPresigner struct{}

func (staticPresigner) Upload(_ context.Context, _, _ string, _ []byte) error { return nil }
func (staticPresigner) Download(_ context.Context, _ string) ([]byte, error)  { return nil, nil }
func (staticPresigner) Delete(_ context.Context, _ string) error              { return nil }
func (staticPresigner) PresignURL(_ context.Context, key string) (string, error) {
	return "https://cdn.example/" + key, nil
}

func strPtr(s string) *string { return &s }

func TestCardDocument(t *testing.T) {
	card := &models.BusinessCard{
		ID:            7,
		Code:          "abcdef0123456789abcd",
		UserID:        3,
		Status:        models.CardStatusAnalyzed,
		FirstName:     strPtr("Taro"),
		FrontImageKey: "3/7-front-image",
		Tags: []models.Tag{
			{ID: 2, Name: "conference", Color: "#ff0000", BusinessCardsCount: 4},
		},
	}

	doc := NewCardSerializer(staticPresigner{}).Card(context.Background(), card)
	assert.Equal(t, "abcdef0123456789abcd", doc.Data.ID)
	assert.Equal(t, "business_card", doc.Data.Type)

	attrs, ok := doc.Data.Attributes.(CardAttributes)
	require.True(t, ok)
	assert.Equal(t, "analyzed", attrs.Status)
	assert.Equal(t, "Taro", *attrs.FirstName)
	assert.Nil(t, attrs.LastName)
	assert.Equal(t, "https://cdn.example/3/7-front-image", attrs.FrontImageURL)
	assert.Empty(t, attrs.BackImageURL)
	require.Len(t, attrs.Tags, 1)
	assert.Equal(t, "conference", attrs.Tags[0].Name)
}

func TestCardsListPagination(t *testing.T) {
	page := &repository.CardPage{
		Cards:       []models.BusinessCard{{ID: 1, Code: "c1"}, {ID: 2, Code: "c2"}},
		CurrentPage: 2,
		TotalCount:  26,
		TotalPages:  3,
		IsLastPage:  false,
	}

	doc := NewCardSerializer(nil).Cards(context.Background(), page)
	assert.Len(t, doc.BusinessCards, 2)
	assert.Equal(t, 2, doc.CurrentPage)
	assert.Equal(t, int64(26), doc.TotalCount)
	assert.Equal(t, 3, doc.TotalPages)
	assert.False(t, doc.IsLastPage)
}

func TestSubscriptionWithIntent(t *testing.T) {
	sub := &models.UserSubscription{ID: 4, PlanType: "pro", Status: "incomplete"}
	doc := NewSubscriptionWithIntent(sub, &billing.CheckoutIntent{Type: "payment", ClientSecret: "pi_secret"})
	assert.Equal(t, "payment", doc.Type)
	assert.Equal(t, "pi_secret", doc.ClientSecret)
	assert.Equal(t, "4", doc.Data.ID)

	// no intent when the subscription needs no confirmation
	doc = NewSubscriptionWithIntent(sub, nil)
	assert.Empty(t, doc.Type)
	assert.Empty(t, doc.ClientSecret)
}

func TestSubscriptionDocumentForFreeUser(t *testing.T) {
	doc := Subscription(&models.UserSubscription{PlanType: "free"})
	assert.Empty(t, doc.Data.ID)
	attrs := doc.Data.Attributes.(SubscriptionAttributes)
	assert.Equal(t, "free", attrs.PlanType)
	assert.Nil(t, attrs.WillDowngradeTo)
}

func TestUserDocument(t *testing.T) {
	doc := User(&models.User{ID: 9, UID: "uid-1", Email: "a@b.co", Providers: models.StringList{"google.com"}})
	assert.Equal(t, "9", doc.Data.ID)
	assert.Equal(t, "user", doc.Data.Type)
	attrs := doc.Data.Attributes.(UserAttributes)
	assert.Equal(t, "uid-1", attrs.UID)
	assert.Equal(t, models.StringList{"google.com"}, attrs.Providers)
}
