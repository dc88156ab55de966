package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/meishibox/meishibox/internal/pkg/analyzer"
)

// processAnalyzeCardJob runs the analyzer pipeline for one card. A card
// without a front image is a permanent condition, so the job is not retried.
func (q *Queue) processAnalyzeCardJob(ctx context.Context, job *Job) error {
	payload, err := AnalyzeCardJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid analyze_card payload: %w", err)
	}

	if err := q.analyzer.Analyze(ctx, payload.BusinessCardID, payload.LanguageHints); err != nil {
		if errors.Is(err, analyzer.ErrMissingImage) {
			log.Errorf("[JobQueue] Card %d has no front image, dropping job %s", payload.BusinessCardID, job.ID)
			return nil
		}
		return err
	}
	return nil
}

// processDeleteCardImagesJob removes a deleted card's images from storage.
func (q *Queue) processDeleteCardImagesJob(ctx context.Context, job *Job) error {
	payload, err := DeleteCardImagesJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid delete_card_images payload: %w", err)
	}

	for _, key := range payload.ObjectKeys {
		if key == "" {
			continue
		}
		if err := q.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete object %s of card %d: %w", key, payload.BusinessCardID, err)
		}
	}
	return nil
}
