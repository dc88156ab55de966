package billing

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeAPI is the narrow surface of the Stripe client the service uses.
// Tests substitute a fake.
type StripeAPI interface {
	CreateCustomer(email, name string) (*stripe.Customer, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	CreateSubscription(customerID, priceID string) (*stripe.Subscription, error)
	UpdateSubscriptionItem(subscriptionID, itemID, priceID string) (*stripe.Subscription, error)
	SetCancelAtPeriodEnd(subscriptionID string, cancel bool) (*stripe.Subscription, error)
	GetSchedule(id string) (*stripe.SubscriptionSchedule, error)
	CreateScheduleFromSubscription(subscriptionID string) (*stripe.SubscriptionSchedule, error)
	UpdateSchedulePhases(scheduleID string, phases []*stripe.SubscriptionSchedulePhaseParams) (*stripe.SubscriptionSchedule, error)
	ReleaseSchedule(id string) (*stripe.SubscriptionSchedule, error)
	GetInvoice(id string) (*stripe.Invoice, error)
}

// stripeAPI wraps the official client.
type stripeAPI struct {
	api *client.API
}

// NewStripeAPI creates the production Stripe client with the given secret key
func NewStripeAPI(secretKey string) StripeAPI {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeAPI{api: api}
}

func (s *stripeAPI) CreateCustomer(email, name string) (*stripe.Customer, error) {
	return s.api.Customers.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	})
}

// subscriptionExpand pulls in everything the sync needs in one round trip.
func subscriptionExpand(params *stripe.SubscriptionParams) *stripe.SubscriptionParams {
	params.AddExpand("items.data.price.product")
	params.AddExpand("latest_invoice.payment_intent")
	params.AddExpand("pending_setup_intent")
	params.AddExpand("schedule")
	return params
}

func (s *stripeAPI) GetSubscription(id string) (*stripe.Subscription, error) {
	return s.api.Subscriptions.Get(id, subscriptionExpand(&stripe.SubscriptionParams{}))
}

func (s *stripeAPI) CreateSubscription(customerID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.PaymentSettings = &stripe.SubscriptionPaymentSettingsParams{
		SaveDefaultPaymentMethod: stripe.String("on_subscription"),
	}
	return s.api.Subscriptions.New(subscriptionExpand(params))
}

func (s *stripeAPI) UpdateSubscriptionItem(subscriptionID, itemID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("always_invoice"),
	}
	return s.api.Subscriptions.Update(subscriptionID, subscriptionExpand(params))
}

func (s *stripeAPI) SetCancelAtPeriodEnd(subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	return s.api.Subscriptions.Update(subscriptionID, subscriptionExpand(params))
}

func (s *stripeAPI) GetSchedule(id string) (*stripe.SubscriptionSchedule, error) {
	return s.api.SubscriptionSchedules.Get(id, nil)
}

func (s *stripeAPI) CreateScheduleFromSubscription(subscriptionID string) (*stripe.SubscriptionSchedule, error) {
	return s.api.SubscriptionSchedules.New(&stripe.SubscriptionScheduleParams{
		FromSubscription: stripe.String(subscriptionID),
	})
}

func (s *stripeAPI) UpdateSchedulePhases(scheduleID string, phases []*stripe.SubscriptionSchedulePhaseParams) (*stripe.SubscriptionSchedule, error) {
	return s.api.SubscriptionSchedules.Update(scheduleID, &stripe.SubscriptionScheduleParams{
		Phases: phases,
	})
}

func (s *stripeAPI) ReleaseSchedule(id string) (*stripe.SubscriptionSchedule, error) {
	return s.api.SubscriptionSchedules.Release(id, &stripe.SubscriptionScheduleReleaseParams{})
}

func (s *stripeAPI) GetInvoice(id string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.AddExpand("payment_intent")
	return s.api.Invoices.Get(id, params)
}
