package api

import (
	"net/http"

	"foodlog-api/internal/config"
	"foodlog-api/internal/response"
	"foodlog-api/internal/services"
	"foodlog-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// MealPlanHandler serves AI meal plan generation
type MealPlanHandler struct {
	mealplans *services.MealPlanService
	redis     *services.RedisService
}

// NewMealPlanHandler creates a meal plan handler. redis may be nil, which
// disables rate limiting.
func NewMealPlanHandler(mealplans *services.MealPlanService, redis *services.RedisService) *MealPlanHandler {
	return &MealPlanHandler{mealplans: mealplans, redis: redis}
}

// Generate creates a meal plan for the authenticated user
// POST /api/mealplan/generate
func (h *MealPlanHandler) Generate(c *gin.Context) {
	userID := c.GetString("user_id")

	var req services.MealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request format: "+err.Error()))
		return
	}

	if h.redis != nil {
		limited, err := h.redis.CheckRateLimit("mealplan", userID)
		if err != nil {
			logging.Errorf("Rate limit check failed for user %s: %v", userID, err)
		} else if limited {
			c.JSON(http.StatusTooManyRequests, response.Error("Please wait before generating another meal plan"))
			return
		}
	}

	mealPlan, err := h.mealplans.Generate(req)
	if err != nil {
		logging.Errorf("Meal plan generation failed for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, response.Error("Failed to generate meal plan. Please try again."))
		return
	}

	if h.redis != nil {
		if err := h.redis.SetRateLimit("mealplan", userID, config.AppConfig.MealPlanRateLimitMinutes); err != nil {
			logging.Errorf("Failed to set rate limit for user %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"mealplan": mealPlan}))
}
