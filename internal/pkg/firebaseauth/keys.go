package firebaseauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meishibox/meishibox/internal/pkg/cache"
)

// GoogleCertsURL serves the x509 certificates used to sign Firebase ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	certsCacheKey = "firebase:securetoken_certs"
	certsCacheTTL = 30 * time.Minute
)

// KeyFetcher resolves the current verification key set as a map of key id to
// PEM-encoded x509 certificate.
type KeyFetcher interface {
	FetchVerificationKeys(ctx context.Context) (map[string]string, error)
}

// HTTPKeyFetcher fetches Google's securetoken certificates over HTTP and
// caches the response body in Redis so that not every request hits Google.
type HTTPKeyFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPKeyFetcher returns a fetcher against the fixed well-known endpoint.
func NewHTTPKeyFetcher() *HTTPKeyFetcher {
	return &HTTPKeyFetcher{
		URL:    GoogleCertsURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchVerificationKeys returns the kid -> PEM certificate map.
func (f *HTTPKeyFetcher) FetchVerificationKeys(ctx context.Context) (map[string]string, error) {
	if cached, err := cache.Get(certsCacheKey); err == nil && cached != "" {
		keys := map[string]string{}
		if err := json.Unmarshal([]byte(cached), &keys); err == nil {
			return keys, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch verification keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch verification keys: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	keys := map[string]string{}
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, fmt.Errorf("parse verification keys: %w", err)
	}

	_ = cache.Set(certsCacheKey, string(body), certsCacheTTL)

	return keys, nil
}
