package handlers

import (
	"io"
	"log"
	"net/http"

	"taskhive/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers receives billing provider webhooks
type WebhookHandlers struct {
	billingService      services.BillingService
	subscriptionService services.SubscriptionService
}

func NewWebhookHandlers(billingService services.BillingService, subscriptionService services.SubscriptionService) *WebhookHandlers {
	return &WebhookHandlers{
		billingService:      billingService,
		subscriptionService: subscriptionService,
	}
}

// HandleBillingWebhook handles POST /webhooks/billing. The raw body is
// verified against the provider signature before any parsing is trusted.
func (h *WebhookHandlers) HandleBillingWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing webhook signature")
	}

	event, err := h.billingService.VerifyWebhook(rawBody, signature)
	if err != nil {
		log.Printf("WARN: webhook: verification failed: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	if err := h.subscriptionService.HandleWebhook(ctx, event); err != nil {
		log.Printf("WARN: webhook: event %s failed: %v", event.Event, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process event")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"received": true,
	})
}
