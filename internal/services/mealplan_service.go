package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"foodlog-api/internal/config"
	"foodlog-api/pkg/logging"
)

// MealPlanService calls an OpenAI-compatible chat completions endpoint to
// generate meal plans. The call is a stateless prompt/response passthrough:
// nothing is persisted and nothing is retried.
type MealPlanService struct {
	apiKey     string
	baseURL    string
	model      string
	siteURL    string
	httpClient *http.Client
}

// NewMealPlanService creates a meal plan service from the app configuration
func NewMealPlanService() *MealPlanService {
	return &MealPlanService{
		apiKey:  config.AppConfig.OpenRouterAPIKey,
		baseURL: config.AppConfig.OpenRouterBaseURL,
		model:   config.AppConfig.MealPlanModel,
		siteURL: config.AppConfig.SiteURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// MealPlanRequest describes what kind of plan to generate
type MealPlanRequest struct {
	DietType  string `json:"diet_type" binding:"required"`
	Calories  int    `json:"calories" binding:"required"`
	Allergies string `json:"allergies"`
	Cuisine   string `json:"cuisine"`
	Snacks    bool   `json:"snacks"`
	Days      int    `json:"days" binding:"required"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate builds the nutritionist prompt, calls the model and parses the
// reply into the per-day meal plan object
func (s *MealPlanService) Generate(req MealPlanRequest) (map[string]interface{}, error) {
	prompt := s.buildPrompt(req)

	body, err := json.Marshal(chatCompletionRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("HTTP-Referer", s.siteURL)
	httpReq.Header.Set("X-Title", "AI Food Log")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no content received from model")
	}

	// Models often wrap the JSON in markdown code fences; strip them
	// before parsing.
	content := completion.Choices[0].Message.Content
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	var mealPlan map[string]interface{}
	if err := json.Unmarshal([]byte(content), &mealPlan); err != nil {
		logging.Errorf("Failed to parse meal plan from model output: %v", err)
		return nil, fmt.Errorf("failed to parse meal plan: %w", err)
	}

	return mealPlan, nil
}

func (s *MealPlanService) buildPrompt(req MealPlanRequest) string {
	allergies := req.Allergies
	if allergies == "" {
		allergies = "none"
	}
	cuisine := req.Cuisine
	if cuisine == "" {
		cuisine = "no preference"
	}
	snacks := "no"
	if req.Snacks {
		snacks = "yes"
	}

	return fmt.Sprintf(`You are a professional nutritionist. Create a %d-day meal plan for an individual following a %s diet aiming for %d calories.

Allergies: %s.
Cuisine: %s.
Snacks: %s.

Structure the response as a JSON object strictly following this structure:
{
    "Monday": {
        "Breakfast": "Meal name - calories",
        "Lunch": "Meal name - calories",
        "Dinner": "Meal name - calories",
        "Snacks": "Snack name - calories"
    }
}
RETURN ONLY JSON. NO TEXT.`, req.Days, req.DietType, req.Calories, allergies, cuisine, snacks)
}
