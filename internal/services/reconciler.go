package services

import (
	"errors"
	"fmt"

	"foodlog-api/internal/database"
	"foodlog-api/internal/models"
	"foodlog-api/pkg/logging"

	"gorm.io/gorm"
)

// OutcomeStatus classifies the result of applying one billing event.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the result of SubscriptionReconciler.Apply. The webhook
// handler decides its HTTP status from this alone: only a failed outcome
// with Retryable set should make the provider redeliver.
type Outcome struct {
	Status    OutcomeStatus
	Reason    string
	Err       error
	Retryable bool

	// Set on applied outcomes so the caller can invalidate caches and
	// send notifications for the affected user.
	UserID string
	Email  string
}

func applied(userID, email string) Outcome {
	return Outcome{Status: OutcomeApplied, UserID: userID, Email: email}
}

func skipped(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}

func failed(err error, retryable bool) Outcome {
	return Outcome{Status: OutcomeFailed, Err: err, Retryable: retryable}
}

// SubscriptionReconciler converges local profiles toward the billing
// provider's subscription state. Every transition is idempotent: redelivered
// or reordered events never corrupt state, they either repeat a write with
// the same values or skip.
type SubscriptionReconciler struct {
	store *database.ProfileStore
}

// NewSubscriptionReconciler creates a reconciler over the given store
func NewSubscriptionReconciler(store *database.ProfileStore) *SubscriptionReconciler {
	return &SubscriptionReconciler{store: store}
}

// Apply dispatches one decoded billing event to its transition
func (r *SubscriptionReconciler) Apply(event *models.BillingEvent) Outcome {
	switch event.Kind {
	case models.EventCheckoutCompleted:
		return r.applyCheckoutCompleted(event.Checkout)
	case models.EventSubscriptionUpdated:
		return r.applySubscriptionUpdated(event.Subscription)
	case models.EventSubscriptionDeleted:
		return r.applySubscriptionDeleted(event.Subscription)
	case models.EventInvoicePaymentFailed:
		return r.applyInvoicePaymentFailed(event.FailedInvoice)
	default:
		logging.Infof("Ignoring unhandled billing event type: %s", event.RawType)
		return skipped("unhandled event type " + event.RawType)
	}
}

// applyCheckoutCompleted activates a subscription, creating the profile row
// if the user has none yet. This is the only path that can bring the local
// record into existence, so a persistence failure here is surfaced as
// retryable; the provider redelivers and the upsert makes the retry safe.
func (r *SubscriptionReconciler) applyCheckoutCompleted(checkout *models.CheckoutCompleted) Outcome {
	if checkout.UserID == "" || checkout.SubscriptionID == "" {
		logging.Warnf("Checkout session missing user_id or subscription id, dropping event")
		return skipped("checkout session missing user_id or subscription id")
	}
	if checkout.Email == "" {
		logging.Warnf("Checkout session missing customer email for user %s, dropping event", checkout.UserID)
		return skipped("checkout session missing customer email")
	}

	var tier *string
	if checkout.PlanType != "" {
		tier = &checkout.PlanType
	}

	if err := r.store.UpsertSubscription(checkout.UserID, checkout.Email, checkout.SubscriptionID, tier); err != nil {
		logging.Errorf("Failed to upsert profile for user %s: %v", checkout.UserID, err)
		return failed(fmt.Errorf("failed to upsert profile: %w", err), true)
	}

	logging.Infof("Subscription activated - user: %s, subscription: %s, tier: %s",
		checkout.UserID, checkout.SubscriptionID, checkout.PlanType)
	return applied(checkout.UserID, checkout.Email)
}

// applySubscriptionUpdated mirrors the provider's status onto the active
// flag. An unknown subscription id is expected when this event outruns the
// checkout-completed delivery; the later checkout re-establishes the mapping.
func (r *SubscriptionReconciler) applySubscriptionUpdated(change *models.SubscriptionChange) Outcome {
	if change.SubscriptionID == "" {
		return skipped("subscription update missing subscription id")
	}

	profile, err := r.store.FindBySubscriptionID(change.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Infof("No profile for subscription %s yet, skipping update", change.SubscriptionID)
			return skipped("no profile for subscription " + change.SubscriptionID)
		}
		logging.Errorf("Failed to look up subscription %s: %v", change.SubscriptionID, err)
		return failed(fmt.Errorf("failed to look up subscription: %w", err), false)
	}

	isActive := change.Status == "active" || change.Status == "trialing"
	if err := r.store.SetSubscriptionActive(profile.ID, isActive); err != nil {
		logging.Errorf("Failed to update subscription status for user %s: %v", profile.UserID, err)
		return failed(fmt.Errorf("failed to update subscription status: %w", err), false)
	}

	logging.Infof("Subscription status updated - user: %s, status: %s, active: %t",
		profile.UserID, change.Status, isActive)
	return applied(profile.UserID, profile.Email)
}

// applySubscriptionDeleted deactivates the profile and releases the
// subscription id so a future checkout can bind a fresh one.
func (r *SubscriptionReconciler) applySubscriptionDeleted(change *models.SubscriptionChange) Outcome {
	if change.SubscriptionID == "" {
		return skipped("subscription deletion missing subscription id")
	}

	profile, err := r.store.FindBySubscriptionID(change.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Infof("No profile for deleted subscription %s, skipping", change.SubscriptionID)
			return skipped("no profile for subscription " + change.SubscriptionID)
		}
		logging.Errorf("Failed to look up subscription %s: %v", change.SubscriptionID, err)
		return failed(fmt.Errorf("failed to look up subscription: %w", err), false)
	}

	if err := r.store.ClearSubscription(profile.ID); err != nil {
		logging.Errorf("Failed to clear subscription for user %s: %v", profile.UserID, err)
		return failed(fmt.Errorf("failed to clear subscription: %w", err), false)
	}

	logging.Infof("Subscription deleted - user: %s, subscription: %s", profile.UserID, change.SubscriptionID)
	return applied(profile.UserID, profile.Email)
}

// applyInvoicePaymentFailed deactivates the profile behind the failed
// invoice. The row keeps its subscription id: a later successful payment
// arrives as a subscription update and reactivates it.
func (r *SubscriptionReconciler) applyInvoicePaymentFailed(invoice *models.InvoicePaymentFailed) Outcome {
	if invoice.SubscriptionID == "" {
		logging.Infof("Failed invoice carries no subscription id, skipping")
		return skipped("invoice missing subscription id")
	}

	profile, err := r.store.FindBySubscriptionID(invoice.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Infof("No profile for subscription %s on failed invoice, skipping", invoice.SubscriptionID)
			return skipped("no profile for subscription " + invoice.SubscriptionID)
		}
		logging.Errorf("Failed to look up subscription %s: %v", invoice.SubscriptionID, err)
		return failed(fmt.Errorf("failed to look up subscription: %w", err), false)
	}

	if err := r.store.SetSubscriptionActive(profile.ID, false); err != nil {
		logging.Errorf("Failed to deactivate subscription for user %s: %v", profile.UserID, err)
		return failed(fmt.Errorf("failed to deactivate subscription: %w", err), false)
	}

	logging.Infof("Subscription deactivated after failed payment - user: %s", profile.UserID)
	return applied(profile.UserID, profile.Email)
}
