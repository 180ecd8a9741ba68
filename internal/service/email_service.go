package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. When fromEmail is empty the
// service is disabled and all sends become logged no-ops.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInviteEmail sends a group invite link to an email address
func (s *EmailService) SendInviteEmail(ctx context.Context, toEmail, inviterName, groupName, inviteLink string, expiresAt time.Time, maxUses int) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): group invite to %s", toEmail)
		return nil
	}
	if s.debug {
		log.Printf("[DEBUG] SendInviteEmail: to=%s, group=%s, link=%s", toEmail, groupName, inviteLink)
	}

	people := "people"
	if maxUses == 1 {
		people = "person"
	}

	subject := fmt.Sprintf("%s invited you to join %s on EquiShare", inviterName, groupName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.button { display: inline-block; padding: 12px 24px; background-color: #6366f1; color: #fff; text-decoration: none; border-radius: 6px; }
		.meta { color: #6b7280; font-size: 14px; }
	</style>
</head>
<body>
	<div class="container">
		<h2>You're invited to %s</h2>
		<p>%s invited you to share expenses in <strong>%s</strong> on EquiShare.</p>
		<p><a class="button" href="%s">Join %s</a></p>
		<p class="meta">This link expires on %s and can be used by up to %d %s.</p>
		<p class="meta">If you weren't expecting this invitation you can ignore this email.</p>
	</div>
</body>
</html>`,
		groupName, inviterName, groupName, inviteLink, groupName,
		expiresAt.Format("Jan 2, 2006"), maxUses, people)

	textBody := fmt.Sprintf(
		"%s invited you to share expenses in %s on EquiShare.\n\nJoin here: %s\n\nThis link expires on %s and can be used by up to %d %s.",
		inviterName, groupName, inviteLink, expiresAt.Format("Jan 2, 2006"), maxUses, people)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", toEmail)
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, resetToken)
	if s.debug {
		log.Printf("[DEBUG] SendPasswordResetEmail: to=%s, link=%s", toEmail, resetLink)
	}

	subject := "Reset Your EquiShare Password"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.button { display: inline-block; padding: 12px 24px; background-color: #6366f1; color: #fff; text-decoration: none; border-radius: 6px; }
		.meta { color: #6b7280; font-size: 14px; }
	</style>
</head>
<body>
	<div class="container">
		<h2>Password Reset</h2>
		<p>Hi %s,</p>
		<p>We received a request to reset your EquiShare password.</p>
		<p><a class="button" href="%s">Reset Password</a></p>
		<p class="meta">This link expires in 1 hour. If you didn't request a reset you can ignore this email.</p>
	</div>
</body>
</html>`, toName, resetLink)

	textBody := fmt.Sprintf(
		"Hi %s,\n\nWe received a request to reset your EquiShare password.\n\nReset here: %s\n\nThis link expires in 1 hour.",
		toName, resetLink)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: aws.String(subject),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data: aws.String(htmlBody),
					},
					Text: &types.Content{
						Data: aws.String(textBody),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent to %s: %s", toEmail, subject)
	return nil
}
