package services

import (
	"context"
	"fmt"
	"time"

	"foodlog-api/internal/config"
	"foodlog-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoService sends transactional subscription emails. All sends are
// best-effort: a failure is logged and never affects request handling.
type BrevoService struct {
	client    *brevo.APIClient
	fromEmail string
	fromName  string
	enabled   bool
}

// NewBrevoService creates a Brevo email service from the app configuration.
// With no API key configured the service stays disabled and every send is a
// logged no-op, which keeps local development working without credentials.
func NewBrevoService() *BrevoService {
	apiKey := config.AppConfig.BrevoAPIKey

	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)

	return &BrevoService{
		client:    brevo.NewAPIClient(cfg),
		fromEmail: config.AppConfig.BrevoFromEmail,
		fromName:  config.AppConfig.BrevoFromName,
		enabled:   apiKey != "" && config.AppConfig.BrevoFromEmail != "",
	}
}

// SendSubscriptionActivated tells the user their subscription is live
func (s *BrevoService) SendSubscriptionActivated(to, tier string) {
	plan := tier
	if plan == "" {
		plan = "your plan"
	}

	subject := fmt.Sprintf("Your %s subscription is active", config.AppConfig.ServiceName)
	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h1 style="color: #333;">Subscription active</h1>
			<p style="color: #666; font-size: 16px;">Thanks for subscribing to %s (%s).</p>
			<p style="color: #666; font-size: 16px;">You now have full access to AI meal plans and nutrition insights.</p>
		</div>
	`, config.AppConfig.ServiceName, plan)
	text := fmt.Sprintf("Thanks for subscribing to %s (%s). You now have full access to AI meal plans and nutrition insights.",
		config.AppConfig.ServiceName, plan)

	s.send(to, subject, html, text)
}

// SendSubscriptionCancelled confirms a cancellation
func (s *BrevoService) SendSubscriptionCancelled(to string) {
	subject := fmt.Sprintf("Your %s subscription has ended", config.AppConfig.ServiceName)
	html := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h1 style="color: #333;">Subscription ended</h1>
			<p style="color: #666; font-size: 16px;">Your %s subscription has been cancelled.</p>
			<p style="color: #666; font-size: 16px;">You can re-subscribe at any time to get AI meal plans again.</p>
		</div>
	`, config.AppConfig.ServiceName)
	text := fmt.Sprintf("Your %s subscription has been cancelled. You can re-subscribe at any time.",
		config.AppConfig.ServiceName)

	s.send(to, subject, html, text)
}

func (s *BrevoService) send(to, subject, html, text string) {
	if !s.enabled {
		logging.Infof("Brevo not configured, skipping email to %s: %s", to, subject)
		return
	}
	if to == "" {
		logging.Errorf("No recipient email for message: %s", subject)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Name: s.fromName, Email: s.fromEmail},
		To:          []brevo.SendSmtpEmailTo{{Email: to}},
		Subject:     subject,
		HtmlContent: html,
		TextContent: text,
	})
	if err != nil {
		logging.Errorf("Failed to send email to %s: %v", to, err)
		return
	}

	logging.Infof("Email sent to %s: %s", to, subject)
}
