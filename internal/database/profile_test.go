package database

import (
	"fmt"
	"testing"

	"foodlog-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestProfileStore(t *testing.T) *ProfileStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	return NewProfileStore(db)
}

func TestUpsertSubscriptionCreatesThenUpdates(t *testing.T) {
	store := newTestProfileStore(t)
	tier := "monthly"

	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", &tier))

	created, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.True(t, created.SubscriptionActive)
	assert.Equal(t, "sub_1", *created.SubscriptionID)

	// Second upsert for the same user must hit the same row.
	yearly := "yearly"
	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_2", &yearly))

	updated, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "sub_2", *updated.SubscriptionID)
	assert.Equal(t, "yearly", *updated.SubscriptionTier)
}

func TestUpsertSubscriptionWithNilTier(t *testing.T) {
	store := newTestProfileStore(t)

	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", nil))

	profile, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.Nil(t, profile.SubscriptionTier)
	assert.True(t, profile.SubscriptionActive)
}

func TestCreateEnforcesUserUniqueness(t *testing.T) {
	store := newTestProfileStore(t)

	require.NoError(t, store.Create(&models.Profile{UserID: "u1", Email: "a@b.com"}))
	err := store.Create(&models.Profile{UserID: "u1", Email: "other@b.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestClearSubscriptionReleasesID(t *testing.T) {
	store := newTestProfileStore(t)
	tier := "monthly"
	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", &tier))

	profile, err := store.FindByUserID("u1")
	require.NoError(t, err)
	require.NoError(t, store.ClearSubscription(profile.ID))

	cleared, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.False(t, cleared.SubscriptionActive)
	assert.Nil(t, cleared.SubscriptionID)

	_, err = store.FindBySubscriptionID("sub_1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The released id can now bind to another user.
	require.NoError(t, store.UpsertSubscription("u2", "c@d.com", "sub_1", &tier))
	rebound, err := store.FindBySubscriptionID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, "u2", rebound.UserID)
}

func TestSetSubscriptionActiveTogglesFlagOnly(t *testing.T) {
	store := newTestProfileStore(t)
	tier := "monthly"
	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", &tier))

	profile, err := store.FindByUserID("u1")
	require.NoError(t, err)

	require.NoError(t, store.SetSubscriptionActive(profile.ID, false))
	toggled, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.False(t, toggled.SubscriptionActive)
	assert.Equal(t, "sub_1", *toggled.SubscriptionID)

	require.NoError(t, store.SetSubscriptionActive(profile.ID, true))
	toggled, err = store.FindByUserID("u1")
	require.NoError(t, err)
	assert.True(t, toggled.SubscriptionActive)
}
