package api

import (
	"net/http"
	"time"

	"foodlog-api/internal/models"
	"foodlog-api/internal/services"
	"foodlog-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// BillingWebhookHandler receives billing provider notifications, verifies
// their origin and hands them to the reconciler. The response status is how
// we talk back to the provider: 400 rejects a forged or malformed delivery,
// 500 asks for a redelivery, anything else is acknowledged with 200 even
// when we chose to do nothing with it.
type BillingWebhookHandler struct {
	verifier   *services.StripeSignatureVerifier
	reconciler *services.SubscriptionReconciler
	redis      *services.RedisService
	emails     *services.BrevoService
}

// NewBillingWebhookHandler wires the webhook endpoint. redis and emails may
// be nil; cache invalidation and notifications are then skipped.
func NewBillingWebhookHandler(
	verifier *services.StripeSignatureVerifier,
	reconciler *services.SubscriptionReconciler,
	redis *services.RedisService,
	emails *services.BrevoService,
) *BillingWebhookHandler {
	return &BillingWebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		redis:      redis,
		emails:     emails,
	}
}

// Handle processes one billing notification
// POST /api/webhooks/billing
func (h *BillingWebhookHandler) Handle(c *gin.Context) {
	startTime := time.Now()

	// The signature covers the exact bytes on the wire, so the body must
	// be read raw before anything parses it.
	body, err := c.GetRawData()
	if err != nil {
		logging.Errorf("Failed to read request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Failed to read request body",
		})
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader("Stripe-Signature")); err != nil {
		logging.Errorf("Webhook signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Signature verification failed",
		})
		return
	}

	event, err := models.DecodeBillingEvent(body)
	if err != nil {
		logging.Errorf("Failed to decode billing event: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid event payload",
		})
		return
	}

	outcome := h.reconciler.Apply(event)

	if outcome.Status == services.OutcomeFailed && outcome.Retryable {
		// Only the existence-creating path reports retryable failures;
		// a 500 here makes the provider deliver the event again later.
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to process event",
		})
		return
	}

	if outcome.Status == services.OutcomeApplied {
		h.afterApply(event, outcome)
	}

	logging.Infof("Billing event processed - id: %s, type: %s, outcome: %s, time: %v",
		event.ID, event.RawType, outcome.Status, time.Since(startTime))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event received",
	})
}

// afterApply runs the best-effort side effects of a state change: dropping
// the cached subscription status and emailing the user. Neither can fail
// the webhook response.
func (h *BillingWebhookHandler) afterApply(event *models.BillingEvent, outcome services.Outcome) {
	if h.redis != nil && outcome.UserID != "" {
		if err := h.redis.InvalidateSubscriptionStatus(outcome.UserID); err != nil {
			logging.Warnf("Failed to invalidate status cache for user %s: %v", outcome.UserID, err)
		}
	}

	if h.emails == nil || outcome.Email == "" {
		return
	}

	switch event.Kind {
	case models.EventCheckoutCompleted:
		tier := event.Checkout.PlanType
		go h.emails.SendSubscriptionActivated(outcome.Email, tier)
	case models.EventSubscriptionDeleted:
		go h.emails.SendSubscriptionCancelled(outcome.Email)
	}
}
