package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

// Posify configuration errors
var (
	ErrPosifyConfigMissingToken   = errors.New("platform: posify access token is required")
	ErrPosifyConfigMissingBaseURL = errors.New("platform: posify base URL is required")
)

// PosifyConfig holds credentials for the Posify point-of-sale API.
// Posify authenticates with a bearer token; webhook deliveries carry a
// base64 HMAC-SHA256 digest of the raw body.
type PosifyConfig struct {
	// AccessToken is the API bearer token
	AccessToken string
	// WebhookSecret signs inbound webhook deliveries
	WebhookSecret string
	// BaseURL is the API base URL without trailing slash
	BaseURL string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
}

// Validate checks the configuration and applies defaults
func (c *PosifyConfig) Validate() error {
	if c == nil {
		return ErrPosifyConfigMissingToken
	}
	if c.AccessToken == "" {
		return ErrPosifyConfigMissingToken
	}
	if c.BaseURL == "" {
		return ErrPosifyConfigMissingBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// SignWebhook computes the base64 HMAC-SHA256 digest Posify sends in the
// X-Posify-Hmac-Sha256 header
func (c *PosifyConfig) SignWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
