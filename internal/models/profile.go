package models

// Profile stores one user's account and billing relationship.
// It is the local mirror of the billing provider's subscription state:
// webhook events converge it toward whatever the provider last reported.
type Profile struct {
	BaseModel

	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:100"` // stable identity key from the auth provider
	Email  string `json:"email" gorm:"not null;size:255"`

	// Subscription state fields
	SubscriptionActive bool    `json:"subscription_active" gorm:"default:false"`
	SubscriptionTier   *string `json:"subscription_tier" gorm:"size:50"`            // plan identifier, nil when never subscribed
	SubscriptionID     *string `json:"subscription_id" gorm:"uniqueIndex;size:100"` // provider-assigned subscription id, nil after cancellation
}
