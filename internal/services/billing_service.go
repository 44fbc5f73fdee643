package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Billing provider event names carried on webhooks.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventPaymentFailed         = "payment.failed"
)

// BillingService is the HTTP client for the payment provider's
// subscription API.
type BillingService interface {
	CreateSubscription(ctx context.Context, providerPlanID, customerEmail string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, providerSubscriptionID string) (*ProviderSubscription, error)
	VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error)
}

// ProviderSubscription is the provider's view of a subscription.
type ProviderSubscription struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	StartAt int64  `json:"start_at"`
	EndAt   int64  `json:"end_at"`
}

// WebhookEvent is a verified provider webhook payload.
type WebhookEvent struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Created int64  `json:"created"`
	Payload struct {
		Subscription ProviderSubscription `json:"subscription"`
	} `json:"payload"`
}

type billingService struct {
	apiKey        string
	apiSecret     string
	webhookSecret string
	baseURL       string
	http          *http.Client
}

func NewBillingService(apiKey, apiSecret, webhookSecret, baseURL string) BillingService {
	return &billingService{
		apiKey:        apiKey,
		apiSecret:     apiSecret,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *billingService) CreateSubscription(ctx context.Context, providerPlanID, customerEmail string) (*ProviderSubscription, error) {
	body := map[string]interface{}{
		"plan_id":        providerPlanID,
		"customer_email": customerEmail,
		"quantity":       1,
	}

	respBody, err := s.request(ctx, http.MethodPost, "/subscriptions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider subscription: %w", err)
	}

	var sub ProviderSubscription
	if err := json.Unmarshal(respBody, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}
	return &sub, nil
}

func (s *billingService) CancelSubscription(ctx context.Context, providerSubscriptionID string) (*ProviderSubscription, error) {
	path := fmt.Sprintf("/subscriptions/%s/cancel", providerSubscriptionID)
	respBody, err := s.request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel provider subscription: %w", err)
	}

	var sub ProviderSubscription
	if err := json.Unmarshal(respBody, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}
	return &sub, nil
}

// VerifyWebhook checks the HMAC-SHA256 signature over the raw body before
// trusting the payload.
func (s *billingService) VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("webhook signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &event, nil
}

func (s *billingService) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.apiKey, s.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
