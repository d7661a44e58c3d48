package api

import (
	"foodlog-api/internal/config"
	"foodlog-api/internal/database"
	"foodlog-api/internal/middleware"
	"foodlog-api/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers onto the engine. Collaborators are
// constructed here once and injected, so handlers never reach for globals.
func SetupRoutes(r *gin.Engine) {
	store := database.NewProfileStore(database.GetDB())
	redisService := services.NewRedisService(database.GetRedis())
	reconciler := services.NewSubscriptionReconciler(store)
	verifier := services.NewStripeSignatureVerifier(config.AppConfig.StripeWebhookSecret)
	emails := services.NewBrevoService()

	webhooks := NewBillingWebhookHandler(verifier, reconciler, redisService, emails)
	profiles := NewProfileHandler(store, redisService)
	mealplans := NewMealPlanHandler(services.NewMealPlanService(), redisService)

	// API route group
	api := r.Group("/api")
	{
		// Billing provider notifications (no auth, the provider signs
		// each request instead)
		api.POST("/webhooks/billing", webhooks.Handle)

		// Unauthenticated subscription probe used by the frontend
		api.GET("/check-subscription", profiles.CheckSubscription)

		// Profile routes (require a valid identity token)
		profile := api.Group("/profile")
		profile.Use(middleware.AuthMiddleware())
		{
			profile.POST("", profiles.CreateProfile)
			profile.GET("/subscription-status", profiles.GetSubscriptionStatus)
		}

		// Meal plan generation (authenticated, rate limited)
		mealplan := api.Group("/mealplan")
		mealplan.Use(middleware.AuthMiddleware())
		{
			mealplan.POST("/generate", mealplans.Generate)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "foodlog-api",
		})
	})
}
