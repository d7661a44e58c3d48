package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"foodlog-api/internal/config"
	"foodlog-api/internal/database"
	"foodlog-api/internal/models"
	"foodlog-api/internal/services"
	"foodlog-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProfileHandler serves the profile CRUD and subscription status endpoints
type ProfileHandler struct {
	store *database.ProfileStore
	redis *services.RedisService
}

// NewProfileHandler creates a profile handler. redis may be nil; status
// responses are then served straight from the database.
func NewProfileHandler(store *database.ProfileStore, redis *services.RedisService) *ProfileHandler {
	return &ProfileHandler{store: store, redis: redis}
}

// SubscriptionStatus is the subscription slice of a profile returned to
// the frontend
type SubscriptionStatus struct {
	SubscriptionTier   *string `json:"subscription_tier"`
	SubscriptionActive bool    `json:"subscription_active"`
	SubscriptionID     *string `json:"subscription_id"`
}

// CreateProfile creates a profile for the authenticated user
// POST /api/profile
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "User does not have an email address",
		})
		return
	}

	if _, err := h.store.FindByUserID(userID); err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Profile already exists",
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Errorf("Failed to check for existing profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	profile := &models.Profile{
		UserID: userID,
		Email:  email,
	}

	if err := h.store.Create(profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a create race for the same user; the row exists now,
			// which is all the caller wanted.
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Profile already exists for this user",
			})
			return
		}
		logging.Errorf("Failed to create profile for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	logging.Infof("Profile created - user: %s", userID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Profile created successfully",
		"data":    gin.H{"profile_id": profile.ID},
	})
}

// GetSubscriptionStatus returns the subscription state of the authenticated
// user, served from the Redis cache when warm
// GET /api/profile/subscription-status
func (h *ProfileHandler) GetSubscriptionStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	if h.redis != nil {
		if cached, err := h.redis.GetSubscriptionStatus(userID); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		} else if !errors.Is(err, redis.Nil) {
			logging.Warnf("Status cache lookup failed for user %s: %v", userID, err)
		}
	}

	var status *SubscriptionStatus
	profile, err := h.store.FindByUserID(userID)
	if err == nil {
		status = &SubscriptionStatus{
			SubscriptionTier:   profile.SubscriptionTier,
			SubscriptionActive: profile.SubscriptionActive,
			SubscriptionID:     profile.SubscriptionID,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Errorf("Failed to load profile for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	payload, err := json.Marshal(gin.H{"subscription": status})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	if h.redis != nil {
		if err := h.redis.StoreSubscriptionStatus(userID, string(payload), config.AppConfig.StatusCacheMinutes); err != nil {
			logging.Warnf("Failed to cache status for user %s: %v", userID, err)
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// CheckSubscription is the unauthenticated probe the frontend middleware
// uses to gate premium pages
// GET /api/check-subscription?user_id=xxx
func (h *ProfileHandler) CheckSubscription(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "user_id is required",
		})
		return
	}

	profile, err := h.store.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"subscription_active": false})
			return
		}
		logging.Errorf("Failed to check subscription for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription_active": profile.SubscriptionActive})
}
