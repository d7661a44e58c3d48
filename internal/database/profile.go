package database

import (
	"time"

	"foodlog-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore wraps profile persistence. It is constructed once at startup
// and handed to whoever needs it; uniqueness on user_id and subscription_id
// is enforced by the database indexes, not by callers.
type ProfileStore struct {
	db *gorm.DB
}

// NewProfileStore creates a profile store over the given connection
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Create inserts a new profile
func (s *ProfileStore) Create(profile *models.Profile) error {
	return s.db.Create(profile).Error
}

// FindByUserID returns the profile for a user, or gorm.ErrRecordNotFound
func (s *ProfileStore) FindByUserID(userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindBySubscriptionID returns the profile holding the given provider
// subscription id, or gorm.ErrRecordNotFound
func (s *ProfileStore) FindBySubscriptionID(subscriptionID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("subscription_id = ?", subscriptionID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertSubscription activates a subscription for a user, creating the
// profile row if it does not exist yet. The write is a single
// INSERT ... ON CONFLICT (user_id) statement so two concurrent deliveries
// for the same user race safely to one row.
func (s *ProfileStore) UpsertSubscription(userID, email, subscriptionID string, tier *string) error {
	profile := models.Profile{
		UserID:             userID,
		Email:              email,
		SubscriptionActive: true,
		SubscriptionTier:   tier,
		SubscriptionID:     &subscriptionID,
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"subscription_id":     subscriptionID,
			"subscription_active": true,
			"subscription_tier":   tier,
			"updated_at":          time.Now(),
		}),
	}).Create(&profile).Error
}

// SetSubscriptionActive flips the active flag on an existing profile
func (s *ProfileStore) SetSubscriptionActive(profileID uint, active bool) error {
	return s.db.Model(&models.Profile{}).
		Where("id = ?", profileID).
		Update("subscription_active", active).Error
}

// ClearSubscription deactivates a profile and releases its subscription id
// so the user can subscribe again cleanly later
func (s *ProfileStore) ClearSubscription(profileID uint) error {
	return s.db.Model(&models.Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]interface{}{
			"subscription_active": false,
			"subscription_id":     nil,
		}).Error
}
