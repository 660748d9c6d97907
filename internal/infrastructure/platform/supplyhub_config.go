package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// SupplyHubConfig holds configuration for the SupplyHub API integration
type SupplyHubConfig struct {
	// APIKey is the merchant API key
	APIKey string
	// APISecret is the secret used to sign outbound requests
	APISecret string
	// WebhookSecret is the secret SupplyHub signs webhook deliveries with
	WebhookSecret string
	// BaseURL is the base URL for the SupplyHub API
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

// Errors for SupplyHub configuration
var (
	ErrSupplyHubConfigMissingAPIKey    = errors.New("supplyhub: API key is required")
	ErrSupplyHubConfigMissingAPISecret = errors.New("supplyhub: API secret is required")
	ErrSupplyHubConfigMissingBaseURL   = errors.New("supplyhub: base URL is required")
)

// Validate validates the SupplyHub configuration
func (c *SupplyHubConfig) Validate() error {
	if c.APIKey == "" {
		return ErrSupplyHubConfigMissingAPIKey
	}
	if c.APISecret == "" {
		return ErrSupplyHubConfigMissingAPISecret
	}
	if c.BaseURL == "" {
		return ErrSupplyHubConfigMissingBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// Sign computes the request signature: HMAC-SHA256 of the request body with
// the API secret, hex encoded. SupplyHub verifies it against the
// X-Supplyhub-Signature header.
func (c *SupplyHubConfig) Sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(c.APISecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// SignWebhook computes the webhook delivery signature: HMAC-SHA256 of the
// raw body with the webhook secret, hex encoded.
func (c *SupplyHubConfig) SignWebhook(body []byte) string {
	h := hmac.New(sha256.New, []byte(c.WebhookSecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
