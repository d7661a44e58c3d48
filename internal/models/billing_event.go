package models

import (
	"encoding/json"
	"fmt"
)

// BillingEventKind enumerates the provider event types the reconciler acts on.
type BillingEventKind string

const (
	EventCheckoutCompleted    BillingEventKind = "checkout.session.completed"
	EventSubscriptionUpdated  BillingEventKind = "customer.subscription.updated"
	EventSubscriptionDeleted  BillingEventKind = "customer.subscription.deleted"
	EventInvoicePaymentFailed BillingEventKind = "invoice.payment_failed"
	EventUnhandled            BillingEventKind = "unhandled"
)

// BillingEvent is the decoded form of one provider notification.
// Exactly one of the payload pointers is set, matching Kind; events of a
// type we don't act on decode to Kind == EventUnhandled with RawType set.
type BillingEvent struct {
	ID      string
	Kind    BillingEventKind
	RawType string

	Checkout      *CheckoutCompleted
	Subscription  *SubscriptionChange
	FailedInvoice *InvoicePaymentFailed
}

// CheckoutCompleted carries the fields of a completed checkout session.
type CheckoutCompleted struct {
	UserID         string // metadata.user_id set when the session was created
	SubscriptionID string
	PlanType       string // metadata.plan_type, may be empty
	Email          string
}

// SubscriptionChange carries the fields shared by subscription
// updated and deleted notifications.
type SubscriptionChange struct {
	SubscriptionID string
	Status         string // provider status, e.g. active, trialing, past_due
}

// InvoicePaymentFailed carries the subscription reference of a failed invoice.
type InvoicePaymentFailed struct {
	SubscriptionID string
}

// billingEnvelope is the provider's outer event wrapper.
type billingEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	Subscription  string            `json:"subscription"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type invoiceObject struct {
	Subscription string `json:"subscription"`
}

// DecodeBillingEvent decodes a verified raw webhook body into a BillingEvent.
// It only fails when the envelope or the kind-specific object is not valid
// JSON; missing fields inside a well-formed object are left empty for the
// reconciler to judge.
func DecodeBillingEvent(body []byte) (*BillingEvent, error) {
	var envelope billingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	event := &BillingEvent{
		ID:      envelope.ID,
		RawType: envelope.Type,
	}

	switch BillingEventKind(envelope.Type) {
	case EventCheckoutCompleted:
		var session checkoutSessionObject
		if err := json.Unmarshal(envelope.Data.Object, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		event.Kind = EventCheckoutCompleted
		event.Checkout = &CheckoutCompleted{
			UserID:         session.Metadata["user_id"],
			SubscriptionID: session.Subscription,
			PlanType:       session.Metadata["plan_type"],
			Email:          session.CustomerEmail,
		}

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var subscription subscriptionObject
		if err := json.Unmarshal(envelope.Data.Object, &subscription); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		event.Kind = BillingEventKind(envelope.Type)
		event.Subscription = &SubscriptionChange{
			SubscriptionID: subscription.ID,
			Status:         subscription.Status,
		}

	case EventInvoicePaymentFailed:
		var invoice invoiceObject
		if err := json.Unmarshal(envelope.Data.Object, &invoice); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		event.Kind = EventInvoicePaymentFailed
		event.FailedInvoice = &InvoicePaymentFailed{
			SubscriptionID: invoice.Subscription,
		}

	default:
		event.Kind = EventUnhandled
	}

	return event, nil
}
