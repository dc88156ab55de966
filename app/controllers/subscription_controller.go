package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/apperror"
	"github.com/meishibox/meishibox/internal/pkg/billing"
	"github.com/meishibox/meishibox/internal/pkg/viewmodel"
)

type createSubscriptionRequest struct {
	PriceID string `json:"price_id"`
}

type subscriptionRequest struct {
	PlanType string `json:"plan_type"`
}

// HandleSubscriptionCreate starts a new paid subscription for the requested
// Stripe price and returns the mirror record together with the confirmation
// intent.
func HandleSubscriptionCreate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.PriceID == "" {
		return apperror.BadParameter("price_id")
	}
	plan, err := planForPriceID(req.PriceID)
	if err != nil {
		return err
	}

	sub, intent, err := deps.Billing.Subscribe(user, plan)
	if err != nil {
		return mapBillingError(err)
	}
	return c.JSON(viewmodel.NewSubscriptionWithIntent(sub, intent))
}

// planForPriceID resolves a requested Stripe price id to its plan tier. Only
// the configured paid prices are accepted.
func planForPriceID(priceID string) (string, error) {
	plan := billing.PlanFromPriceID(priceID)
	if !billing.IsPaidPlan(plan) {
		return "", apperror.BadParameter("price_id")
	}
	return plan, nil
}

// HandleSubscriptionCurrent returns the user's latest subscription state,
// or an empty object for users who never subscribed.
func HandleSubscriptionCurrent(c *fiber.Ctx) error {
	uc, err := requireUser(c)
	if err != nil {
		return err
	}

	sub, err := deps.Billing.CurrentSubscription(uc.UserID)
	if err != nil {
		return err
	}
	if sub.ID == 0 {
		// never subscribed
		return c.JSON(fiber.Map{})
	}
	return c.JSON(viewmodel.Subscription(sub))
}

// HandleSubscriptionCancel stops renewal at the end of the current period.
func HandleSubscriptionCancel(c *fiber.Ctx) error {
	return subscriptionAction(c, deps.Billing.Cancel)
}

// HandleSubscriptionReactivate clears a pending cancellation.
func HandleSubscriptionReactivate(c *fiber.Ctx) error {
	return subscriptionAction(c, deps.Billing.Reactivate)
}

// HandleSubscriptionCancelDowngrade releases a scheduled downgrade.
func HandleSubscriptionCancelDowngrade(c *fiber.Ctx) error {
	return subscriptionAction(c, deps.Billing.CancelDowngrade)
}

// HandleSubscriptionChangePlan moves an active subscription to another plan.
func HandleSubscriptionChangePlan(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.PlanType == "" {
		return apperror.BadParameter("plan_type")
	}

	sub, err := deps.Billing.ChangePlan(user, req.PlanType)
	if err != nil {
		return mapBillingError(err)
	}
	return c.JSON(viewmodel.Subscription(sub))
}

// subscriptionAction runs a billing mutation and serializes the result.
func subscriptionAction(c *fiber.Ctx, fn func(*models.User) (*models.UserSubscription, error)) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := fn(user)
	if err != nil {
		return mapBillingError(err)
	}
	return c.JSON(viewmodel.Subscription(sub))
}

// currentUser loads the authenticated user's row for billing operations.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	uc, err := requireUser(c)
	if err != nil {
		return nil, err
	}
	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		return nil, notFoundIfMissing(err, "user")
	}
	return user, nil
}

// mapBillingError translates billing sentinels into the API error taxonomy.
func mapBillingError(err error) error {
	switch {
	case errors.Is(err, billing.ErrNoSubscription):
		return apperror.NotFound("subscription")
	case errors.Is(err, billing.ErrAlreadyOnPlan):
		return apperror.Validation(err)
	case errors.Is(err, billing.ErrUnknownPlan):
		return apperror.BadParameter("plan_type")
	default:
		return err
	}
}
