package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/billing"
	"github.com/meishibox/meishibox/internal/pkg/env"
)

// HandleStripeWebhook receives Stripe events, verifies their signature when
// an endpoint secret is configured, deduplicates them by event id and
// reconciles the local subscription mirror.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	var event *stripe.Event
	var signatureValid bool

	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret != "" {
		verified, err := billing.VerifyWebhook(payload, c.Get("Stripe-Signature"), secret)
		if err != nil {
			log.Warnf("[Webhook] Signature verification failed: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{}})
		}
		event = verified
		signatureValid = true
	} else {
		var parsed stripe.Event
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{}})
		}
		event = &parsed
	}

	repo := repository.GetGlobalRepositories().Billing
	record := &models.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	}
	fresh, err := repo.RecordWebhookEvent(record)
	if err != nil {
		return err
	}
	if !fresh {
		// Stripe retries aggressively; replays are acknowledged without work.
		log.Infof("[Webhook] Duplicate event %s ignored", event.ID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{})
	}

	if err := deps.Billing.HandleEvent(event); err != nil {
		if markErr := repo.MarkWebhookProcessed(record, err); markErr != nil {
			log.Errorf("[Webhook] Failed to mark event %s: %v", event.ID, markErr)
		}
		if errors.Is(err, billing.ErrUnhandledEvent) {
			log.Infof("[Webhook] Ignoring unhandled event type %s", event.Type)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": []string{}})
		}
		log.Errorf("[Webhook] Processing event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"errors": []string{}})
	}

	if err := repo.MarkWebhookProcessed(record, nil); err != nil {
		log.Errorf("[Webhook] Failed to mark event %s: %v", event.ID, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{})
}
