package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/meishibox/meishibox/app/models"
	"github.com/meishibox/meishibox/app/repository"
	"github.com/meishibox/meishibox/internal/pkg/storage"
	"github.com/meishibox/meishibox/internal/pkg/vision"
)

// MaxParseAttempts is how often a card is re-sent to the model when the
// completion cannot be parsed, before the card is marked failed.
const MaxParseAttempts = 4

// ErrMissingImage means the card has no front image and cannot be analyzed.
// The card's status is left untouched in that case.
var ErrMissingImage = errors.New("business card has no front image")

// Analyzer runs the OCR and field extraction pipeline over a business card.
type Analyzer struct {
	cards  repository.BusinessCardRepository
	store  storage.BlobStore
	ocr    vision.TextExtractor
	fields FieldExtractor
}

// New creates an analyzer with its collaborators injected
func New(cards repository.BusinessCardRepository, store storage.BlobStore, ocr vision.TextExtractor, fields FieldExtractor) *Analyzer {
	return &Analyzer{cards: cards, store: store, ocr: ocr, fields: fields}
}

// Analyze processes one card end to end: download the images, OCR them,
// extract contact fields and persist the terminal status. A card whose
// completions never parse ends up as failed with empty fields, which is a
// normal outcome, not an error. Infrastructure failures are returned so the
// job can be retried without a state change. Re-analyzing an already
// analyzed or failed card runs the pipeline again and overwrites the fields.
func (a *Analyzer) Analyze(ctx context.Context, cardID uint, languageHints []string) error {
	card, err := a.cards.GetByID(cardID)
	if err != nil {
		return fmt.Errorf("load card %d: %w", cardID, err)
	}
	if !card.HasFrontImage() {
		return ErrMissingImage
	}

	cardText, err := a.collectText(ctx, card, languageHints)
	if err != nil {
		return err
	}

	fields, err := a.extractWithRetry(ctx, card.ID, cardText)
	if err != nil {
		return err
	}
	if fields == nil {
		card.Status = models.CardStatusFailed
		if err := a.cards.Update(card); err != nil {
			return fmt.Errorf("mark card %d failed: %w", card.ID, err)
		}
		log.Warnf("[Analyzer] Card %d marked failed after %d parse attempts", card.ID, MaxParseAttempts)
		return nil
	}

	fields.ApplyTo(card)
	card.Status = models.CardStatusAnalyzed
	if err := a.cards.Update(card); err != nil {
		return fmt.Errorf("save analyzed card %d: %w", card.ID, err)
	}
	log.Infof("[Analyzer] Card %d analyzed", card.ID)
	return nil
}

// collectText OCRs the front image and, when present, the back image and
// joins them into one labeled blob for the model.
func (a *Analyzer) collectText(ctx context.Context, card *models.BusinessCard, languageHints []string) (string, error) {
	var sb strings.Builder

	frontImage, err := a.store.Download(ctx, card.FrontImageKey)
	if err != nil {
		return "", fmt.Errorf("download front image of card %d: %w", card.ID, err)
	}
	frontText, err := a.ocr.ExtractText(ctx, frontImage, languageHints)
	if err != nil {
		return "", fmt.Errorf("ocr front image of card %d: %w", card.ID, err)
	}
	sb.WriteString("Front Business Card Text >>\n")
	sb.WriteString(frontText)

	if card.HasBackImage() {
		backImage, err := a.store.Download(ctx, card.BackImageKey)
		if err != nil {
			return "", fmt.Errorf("download back image of card %d: %w", card.ID, err)
		}
		backText, err := a.ocr.ExtractText(ctx, backImage, languageHints)
		if err != nil {
			return "", fmt.Errorf("ocr back image of card %d: %w", card.ID, err)
		}
		sb.WriteString("\n\nBack Business Card Text >>\n")
		sb.WriteString(backText)
	}

	return sb.String(), nil
}

// extractWithRetry retries unparsable completions up to MaxParseAttempts.
// It returns (nil, nil) when every attempt was unparsable.
func (a *Analyzer) extractWithRetry(ctx context.Context, cardID uint, cardText string) (*ContactFields, error) {
	for attempt := 1; attempt <= MaxParseAttempts; attempt++ {
		fields, err := a.fields.ExtractFields(ctx, cardText)
		if err == nil {
			return fields, nil
		}
		if !errors.Is(err, ErrUnparsable) {
			return nil, fmt.Errorf("extract fields of card %d: %w", cardID, err)
		}
		log.Warnf("[Analyzer] Card %d attempt %d/%d unparsable: %v", cardID, attempt, MaxParseAttempts, err)
	}
	return nil, nil
}
