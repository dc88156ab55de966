package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meishibox/meishibox/internal/pkg/openai"
)

// ErrUnparsable marks a completion whose content was not the expected JSON.
// The analyzer retries these; transport failures are returned as-is.
var ErrUnparsable = errors.New("completion is not valid contact field JSON")

// FieldExtractor turns OCR text into structured contact fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, cardText string) (*ContactFields, error)
}

const extractionPrompt = `You are given the OCR text of a business card.
Extract the contact information and answer with a single JSON object using
exactly these keys: first_name, last_name, first_name_phonetic,
last_name_phonetic, company, job_title, department, website, address, email,
mobile_phone, home_phone, fax. Use null for anything not present on the card.
Answer with the JSON object only, no explanation.`

// OpenAIFieldExtractor extracts contact fields through a chat completion.
type OpenAIFieldExtractor struct {
	client *openai.Client
}

// NewOpenAIFieldExtractor creates a field extractor backed by the given client
func NewOpenAIFieldExtractor(client *openai.Client) *OpenAIFieldExtractor {
	return &OpenAIFieldExtractor{client: client}
}

// ExtractFields performs a single extraction attempt.
func (e *OpenAIFieldExtractor) ExtractFields(ctx context.Context, cardText string) (*ContactFields, error) {
	content, err := e.client.ChatCompletion(ctx, []openai.Message{
		{Role: "system", Content: extractionPrompt},
		{Role: "user", Content: cardText},
	})
	if err != nil {
		return nil, err
	}
	return parseFields(content)
}

// parseFields decodes the completion content, tolerating surrounding prose by
// slicing out the outermost JSON object.
func parseFields(content string) (*ContactFields, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsable)
	}

	var fields ContactFields
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return &fields, nil
}
