package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodlog-api/internal/config"
	"foodlog-api/internal/database"
	"foodlog-api/internal/middleware"
	"foodlog-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-jwt-secret"

func setupProfileRouter(t *testing.T) (*gin.Engine, *database.ProfileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	previous := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: testJWTSecret, StatusCacheMinutes: 5}
	t.Cleanup(func() { config.AppConfig = previous })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	store := database.NewProfileStore(db)
	handler := NewProfileHandler(store, nil)

	r := gin.New()
	authed := r.Group("/api/profile")
	authed.Use(middleware.AuthMiddleware())
	authed.POST("", handler.CreateProfile)
	authed.GET("/subscription-status", handler.GetSubscriptionStatus)
	r.GET("/api/check-subscription", handler.CheckSubscription)
	return r, store
}

func bearerToken(t *testing.T, userID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestCreateProfileForAuthenticatedUser(t *testing.T) {
	r, store := setupProfileRouter(t)

	req := httptest.NewRequest("POST", "/api/profile", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1", "a@b.com"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	profile, err := store.FindByUserID("u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", profile.Email)
	assert.False(t, profile.SubscriptionActive)

	// Repeat is reported as already existing, not an error.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/profile", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1", "a@b.com"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProfileRequiresEmailClaim(t *testing.T) {
	r, _ := setupProfileRouter(t)

	req := httptest.NewRequest("POST", "/api/profile", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1", ""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileEndpointsRejectBadTokens(t *testing.T) {
	r, _ := setupProfileRouter(t)

	for _, header := range []string{
		"",
		"Bearer not-a-token",
		"Basic dXNlcjpwYXNz",
	} {
		req := httptest.NewRequest("POST", "/api/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestSubscriptionStatusReflectsProfile(t *testing.T) {
	r, store := setupProfileRouter(t)
	tier := "monthly"
	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", &tier))

	req := httptest.NewRequest("GET", "/api/profile/subscription-status", nil)
	req.Header.Set("Authorization", bearerToken(t, "u1", "a@b.com"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var reply struct {
		Subscription *SubscriptionStatus `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.NotNil(t, reply.Subscription)
	assert.True(t, reply.Subscription.SubscriptionActive)
	assert.Equal(t, "monthly", *reply.Subscription.SubscriptionTier)
	assert.Equal(t, "sub_1", *reply.Subscription.SubscriptionID)
}

func TestSubscriptionStatusWithoutProfileIsNull(t *testing.T) {
	r, _ := setupProfileRouter(t)

	req := httptest.NewRequest("GET", "/api/profile/subscription-status", nil)
	req.Header.Set("Authorization", bearerToken(t, "u-none", "x@y.com"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var reply map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "null", string(reply["subscription"]))
}

func TestCheckSubscription(t *testing.T) {
	r, store := setupProfileRouter(t)
	tier := "monthly"
	require.NoError(t, store.UpsertSubscription("u1", "a@b.com", "sub_1", &tier))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/check-subscription?user_id=u1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscription_active": true}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/check-subscription?user_id=unknown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscription_active": false}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/check-subscription", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
