package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Billing webhook configuration
	StripeWebhookSecret string

	// Auth configuration
	JWTSecret string

	// Meal plan generation configuration
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	MealPlanModel     string
	SiteURL           string

	// Brevo email configuration
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	// Cache and rate limit configuration
	StatusCacheMinutes       int
	MealPlanRateLimitMinutes int
	ServiceName              string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:                     getEnv("PORT", "8080"),
		Mode:                     getEnv("GIN_MODE", "debug"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StripeWebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
		JWTSecret:                getEnv("JWT_SECRET", ""),
		OpenRouterAPIKey:         getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		MealPlanModel:            getEnv("MEALPLAN_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),
		SiteURL:                  getEnv("SITE_URL", "http://localhost:3000"),
		BrevoAPIKey:              getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:           getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:            getEnv("BREVO_FROM_NAME", "Food Log"),
		StatusCacheMinutes:       getEnvInt("STATUS_CACHE_MINUTES", 5),
		MealPlanRateLimitMinutes: getEnvInt("MEALPLAN_RATE_LIMIT_MINUTES", 1),
		ServiceName:              getEnv("SERVICE_NAME", "Food Log API"),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
