package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
)

var (
	// ErrUnhandledEvent marks webhook event types the service does not process.
	ErrUnhandledEvent = errors.New("unhandled webhook event type")
	// ErrNoSubscription means the user has no Stripe subscription to act on.
	ErrNoSubscription = errors.New("no subscription")
	// ErrAlreadyOnPlan means the requested plan equals the current one.
	ErrAlreadyOnPlan = errors.New("already subscribed to this plan")
	// ErrUnknownPlan means the requested plan has no configured Stripe price.
	ErrUnknownPlan = errors.New("unknown plan")
)

// Service synchronizes subscription state between Stripe and the local
// mirror tables. Stripe is the source of truth; every mutation re-syncs from
// the provider response.
type Service struct {
	repo   repository.BillingRepository
	stripe StripeAPI
}

// NewService creates a billing service with its collaborators injected
func NewService(repo repository.BillingRepository, stripeAPI StripeAPI) *Service {
	return &Service{repo: repo, stripe: stripeAPI}
}

// EnsureCustomer returns the user's billing record, creating the Stripe
// customer lazily on first use.
func (s *Service) EnsureCustomer(user *models.User) (*models.UserBilling, error) {
	billing, err := s.repo.GetBillingByUserID(user.ID)
	if err == nil {
		return billing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer, err := s.stripe.CreateCustomer(user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("create stripe customer: %w", err)
	}
	return s.repo.EnsureBilling(user.ID, customer.ID)
}

// CurrentSubscription returns the user's latest mirrored subscription, or a
// synthetic free-plan record when the user never subscribed.
func (s *Service) CurrentSubscription(userID uint) (*models.UserSubscription, error) {
	sub, err := s.repo.GetCurrentSubscription(userID)
	if err == nil {
		return sub, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserSubscription{PlanType: PlanFree}, nil
	}
	return nil, err
}

// CheckoutIntent tells the client which Stripe confirmation flow to run.
type CheckoutIntent struct {
	Type         string `json:"type"` // "payment" or "setup"
	ClientSecret string `json:"client_secret"`
}

// Subscribe creates a new Stripe subscription for a paid plan. The returned
// intent carries the client secret the frontend needs to confirm payment.
func (s *Service) Subscribe(user *models.User, plan string) (*models.UserSubscription, *CheckoutIntent, error) {
	plan, err := ParsePlan(plan)
	if err != nil {
		return nil, nil, err
	}
	priceID := PriceIDForPlan(plan)
	if priceID == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
	}

	billing, err := s.EnsureCustomer(user)
	if err != nil {
		return nil, nil, err
	}

	if existing, err := s.repo.GetCurrentSubscription(user.ID); err == nil && existing.IsActive() {
		return nil, nil, ErrAlreadyOnPlan
	}

	sub, err := s.stripe.CreateSubscription(billing.StripeCustomerID, priceID)
	if err != nil {
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}
	record, err := s.syncSubscription(billing, sub)
	if err != nil {
		return nil, nil, err
	}
	return record, checkoutIntent(sub), nil
}

// checkoutIntent picks the confirmation secret from the expanded subscription.
func checkoutIntent(sub *stripe.Subscription) *CheckoutIntent {
	if sub.PendingSetupIntent != nil && sub.PendingSetupIntent.ClientSecret != "" {
		return &CheckoutIntent{Type: "setup", ClientSecret: sub.PendingSetupIntent.ClientSecret}
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		return &CheckoutIntent{Type: "payment", ClientSecret: sub.LatestInvoice.PaymentIntent.ClientSecret}
	}
	return nil
}

// Cancel stops renewal at the end of the current period. A pending downgrade
// schedule is released first so the cancellation wins.
func (s *Service) Cancel(user *models.User) (*models.UserSubscription, error) {
	billing, stripeSub, err := s.activeStripeSubscription(user)
	if err != nil {
		return nil, err
	}
	if stripeSub.Schedule != nil {
		if _, err := s.stripe.ReleaseSchedule(stripeSub.Schedule.ID); err != nil {
			return nil, fmt.Errorf("release schedule: %w", err)
		}
	}
	updated, err := s.stripe.SetCancelAtPeriodEnd(stripeSub.ID, true)
	if err != nil {
		return nil, fmt.Errorf("cancel at period end: %w", err)
	}
	return s.syncSubscription(billing, updated)
}

// Reactivate clears a pending cancellation before the period ends.
func (s *Service) Reactivate(user *models.User) (*models.UserSubscription, error) {
	billing, stripeSub, err := s.activeStripeSubscription(user)
	if err != nil {
		return nil, err
	}
	updated, err := s.stripe.SetCancelAtPeriodEnd(stripeSub.ID, false)
	if err != nil {
		return nil, fmt.Errorf("clear cancel_at_period_end: %w", err)
	}
	return s.syncSubscription(billing, updated)
}

// CancelDowngrade releases the downgrade schedule, keeping the current plan.
func (s *Service) CancelDowngrade(user *models.User) (*models.UserSubscription, error) {
	billing, stripeSub, err := s.activeStripeSubscription(user)
	if err != nil {
		return nil, err
	}
	if stripeSub.Schedule == nil {
		return nil, ErrNoSubscription
	}
	if _, err := s.stripe.ReleaseSchedule(stripeSub.Schedule.ID); err != nil {
		return nil, fmt.Errorf("release schedule: %w", err)
	}
	updated, err := s.stripe.GetSubscription(stripeSub.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh subscription: %w", err)
	}
	return s.syncSubscription(billing, updated)
}

// activeStripeSubscription loads the user's billing row and the expanded
// Stripe subscription behind the latest mirror record.
func (s *Service) activeStripeSubscription(user *models.User) (*models.UserBilling, *stripe.Subscription, error) {
	billing, err := s.repo.GetBillingByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoSubscription
		}
		return nil, nil, err
	}
	current, err := s.repo.GetCurrentSubscription(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoSubscription
		}
		return nil, nil, err
	}
	stripeSub, err := s.stripe.GetSubscription(current.SubscriptionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get subscription: %w", err)
	}
	return billing, stripeSub, nil
}

// ChangePlan moves an active subscription to another plan. Upgrades take
// effect immediately with proration; downgrades are deferred to the end of
// the current period through a two-phase subscription schedule, and a
// downgrade to free simply cancels at period end.
func (s *Service) ChangePlan(user *models.User, newPlan string) (*models.UserSubscription, error) {
	newPlan, err := ParsePlan(newPlan)
	if err != nil {
		return nil, err
	}

	billing, stripeSub, err := s.activeStripeSubscription(user)
	if err != nil {
		return nil, err
	}
	currentPlan := planFromSubscription(stripeSub)
	if currentPlan == newPlan {
		return nil, ErrAlreadyOnPlan
	}

	if IsDowngrade(currentPlan, newPlan) {
		return s.downgrade(billing, stripeSub, newPlan)
	}
	return s.upgrade(billing, stripeSub, newPlan)
}

// upgrade swaps the subscription item to the higher price right away.
func (s *Service) upgrade(billing *models.UserBilling, stripeSub *stripe.Subscription, newPlan string) (*models.UserSubscription, error) {
	priceID := PriceIDForPlan(newPlan)
	if priceID == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, newPlan)
	}
	if stripeSub.Items == nil || len(stripeSub.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no items", stripeSub.ID)
	}

	// A pending downgrade schedule would fight the upgrade, release it first.
	if stripeSub.Schedule != nil {
		if _, err := s.stripe.ReleaseSchedule(stripeSub.Schedule.ID); err != nil {
			return nil, fmt.Errorf("release schedule: %w", err)
		}
	}
	if stripeSub.CancelAtPeriodEnd {
		if _, err := s.stripe.SetCancelAtPeriodEnd(stripeSub.ID, false); err != nil {
			return nil, fmt.Errorf("clear cancel_at_period_end: %w", err)
		}
	}

	updated, err := s.stripe.UpdateSubscriptionItem(stripeSub.ID, stripeSub.Items.Data[0].ID, priceID)
	if err != nil {
		return nil, fmt.Errorf("update subscription item: %w", err)
	}
	return s.syncSubscription(billing, updated)
}

// downgrade defers the plan change to the end of the paid period.
func (s *Service) downgrade(billing *models.UserBilling, stripeSub *stripe.Subscription, newPlan string) (*models.UserSubscription, error) {
	if newPlan == PlanFree {
		updated, err := s.stripe.SetCancelAtPeriodEnd(stripeSub.ID, true)
		if err != nil {
			return nil, fmt.Errorf("cancel at period end: %w", err)
		}
		return s.syncSubscription(billing, updated)
	}

	priceID := PriceIDForPlan(newPlan)
	if priceID == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, newPlan)
	}
	if stripeSub.Items == nil || len(stripeSub.Items.Data) == 0 || stripeSub.Items.Data[0].Price == nil {
		return nil, fmt.Errorf("subscription %s has no items", stripeSub.ID)
	}
	currentPriceID := stripeSub.Items.Data[0].Price.ID

	schedule := stripeSub.Schedule
	if schedule == nil {
		created, err := s.stripe.CreateScheduleFromSubscription(stripeSub.ID)
		if err != nil {
			return nil, fmt.Errorf("create schedule: %w", err)
		}
		schedule = created
	}

	phases := []*stripe.SubscriptionSchedulePhaseParams{
		{
			Items: []*stripe.SubscriptionSchedulePhaseItemParams{
				{Price: stripe.String(currentPriceID), Quantity: stripe.Int64(1)},
			},
			StartDate: stripe.Int64(stripeSub.CurrentPeriodStart),
			EndDate:   stripe.Int64(stripeSub.CurrentPeriodEnd),
		},
		{
			Items: []*stripe.SubscriptionSchedulePhaseItemParams{
				{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
			},
		},
	}
	if _, err := s.stripe.UpdateSchedulePhases(schedule.ID, phases); err != nil {
		return nil, fmt.Errorf("update schedule phases: %w", err)
	}

	updated, err := s.stripe.GetSubscription(stripeSub.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh subscription: %w", err)
	}
	return s.syncSubscription(billing, updated)
}

// HandleEvent reconciles local state from a verified webhook event. Event
// types outside the handled set return ErrUnhandledEvent.
func (s *Service) HandleEvent(event *stripe.Event) error {
	switch string(event.Type) {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription payload: %w", err)
		}
		billing, err := s.billingForCustomer(customerID(sub.Customer))
		if err != nil {
			return err
		}
		full, err := s.stripe.GetSubscription(sub.ID)
		if err != nil {
			return fmt.Errorf("get subscription %s: %w", sub.ID, err)
		}
		_, err = s.syncSubscription(billing, full)
		return err

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription payload: %w", err)
		}
		billing, err := s.billingForCustomer(customerID(sub.Customer))
		if err != nil {
			return err
		}
		// Deleted subscriptions cannot be refetched with expansions, sync
		// straight from the payload.
		_, err = s.syncSubscription(billing, &sub)
		return err

	case "invoice.created", "invoice.updated", "invoice.paid",
		"invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice payload: %w", err)
		}
		billing, err := s.billingForCustomer(customerID(inv.Customer))
		if err != nil {
			return err
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			log.Warnf("[Billing] Invoice %s has no subscription, skipping", inv.ID)
			return nil
		}
		full, err := s.stripe.GetSubscription(inv.Subscription.ID)
		if err != nil {
			return fmt.Errorf("get subscription %s: %w", inv.Subscription.ID, err)
		}
		subRecord, err := s.syncSubscription(billing, full)
		if err != nil {
			return err
		}
		return s.recordInvoice(billing, subRecord, &inv)

	default:
		return fmt.Errorf("%w: %s", ErrUnhandledEvent, event.Type)
	}
}

// billingForCustomer resolves a Stripe customer id to the local billing row.
func (s *Service) billingForCustomer(custID string) (*models.UserBilling, error) {
	if custID == "" {
		return nil, errors.New("event has no customer")
	}
	billing, err := s.repo.GetBillingByCustomerID(custID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer %s: %w", custID, err)
	}
	return billing, nil
}

// syncSubscription writes the mirror row for a Stripe subscription and
// returns the persisted record.
func (s *Service) syncSubscription(billing *models.UserBilling, sub *stripe.Subscription) (*models.UserSubscription, error) {
	record := &models.UserSubscription{
		UserBillingID:     billing.ID,
		SubscriptionID:    sub.ID,
		PlanType:          planFromSubscription(sub),
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		TermFrom:          unixTime(sub.CurrentPeriodStart),
		TermTo:            unixTime(sub.CurrentPeriodEnd),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		record.Price = sub.Items.Data[0].Price.UnitAmount
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		record.PaymentIntentStatus = string(sub.LatestInvoice.PaymentIntent.Status)
	}

	if sub.CancelAtPeriodEnd {
		free := PlanFree
		record.WillDowngradeTo = &free
	} else {
		scheduled, err := s.scheduledPlan(sub.Schedule)
		if err != nil {
			return nil, err
		}
		if scheduled != "" && IsDowngrade(record.PlanType, scheduled) {
			record.WillDowngradeTo = &scheduled
		}
	}

	if err := s.repo.UpsertSubscription(record); err != nil {
		return nil, fmt.Errorf("upsert subscription %s: %w", sub.ID, err)
	}
	return s.repo.GetSubscriptionByID(sub.ID)
}

// scheduledPlan returns the plan of the schedule's final phase, fetching the
// full schedule when the expansion only carried the id.
func (s *Service) scheduledPlan(schedule *stripe.SubscriptionSchedule) (string, error) {
	if schedule == nil {
		return "", nil
	}
	if len(schedule.Phases) == 0 {
		full, err := s.stripe.GetSchedule(schedule.ID)
		if err != nil {
			return "", fmt.Errorf("get schedule %s: %w", schedule.ID, err)
		}
		schedule = full
	}
	if len(schedule.Phases) < 2 {
		return "", nil
	}
	last := schedule.Phases[len(schedule.Phases)-1]
	if len(last.Items) == 0 || last.Items[0].Price == nil {
		return "", nil
	}
	return PlanFromPriceID(last.Items[0].Price.ID), nil
}

// recordInvoice upserts the invoice mirror row keyed on the Stripe invoice id.
func (s *Service) recordInvoice(billing *models.UserBilling, subRecord *models.UserSubscription, inv *stripe.Invoice) error {
	invoice := &models.UserInvoice{
		UserBillingID:      billing.ID,
		UserSubscriptionID: subRecord.ID,
		StripeInvoiceID:    inv.ID,
		PlanType:           subRecord.PlanType,
		StripeStatus:       string(inv.Status),
		Total:              inv.Total,
		TermFrom:           unixTime(inv.PeriodStart),
		TermTo:             unixTime(inv.PeriodEnd),
		InvoicePDF:         inv.InvoicePDF,
	}
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		invoice.PaidAt = unixTime(inv.StatusTransitions.PaidAt)
	}
	return s.repo.UpsertInvoice(invoice)
}

// planFromSubscription derives the plan from the subscription's first item,
// preferring the expanded product over the price id.
func planFromSubscription(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return PlanFree
	}
	price := sub.Items.Data[0].Price
	if price.Product != nil {
		if plan := PlanFromProductID(price.Product.ID); plan != PlanFree {
			return plan
		}
	}
	return PlanFromPriceID(price.ID)
}

func unixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
