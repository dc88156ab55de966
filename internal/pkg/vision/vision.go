package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// TextExtractor turns a card image into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, languageHints []string) (string, error)
}

// Client performs OCR through the Google Cloud Vision images:annotate API.
type Client struct {
	service *vision.Service
}

// NewClient creates a Vision API client authenticated with the given API key
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	service, err := vision.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}
	return &Client{service: service}, nil
}

// ExtractText runs TEXT_DETECTION over the image and returns the detected
// full text. An image without any text yields an empty string, not an error.
func (c *Client) ExtractText(ctx context.Context, image []byte, languageHints []string) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image: &vision.Image{
					Content: base64.StdEncoding.EncodeToString(image),
				},
				Features: []*vision.Feature{
					{Type: "TEXT_DETECTION"},
				},
				ImageContext: &vision.ImageContext{
					LanguageHints: languageHints,
				},
			},
		},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision annotate request failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("vision annotate returned no responses")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return "", fmt.Errorf("vision annotate error: %s", annotation.Error.Message)
	}
	if annotation.FullTextAnnotation == nil {
		return "", nil
	}
	return annotation.FullTextAnnotation.Text, nil
}
