package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends lifecycle notifications to the caregiver via Amazon
// SES. Notifications are best-effort: failures are logged, never surfaced
// to the flows that trigger them.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	toEmail    string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. Missing from or to
// addresses produce a disabled service that skips every send.
func NewEmailService(awsRegion, fromEmail, fromName, toEmail, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" || toEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL or NOTIFY_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, to=%s, region=%s", fromEmail, toEmail, awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		toEmail:    toEmail,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyNewWeek tells the caregiver a fresh week is ready
func (s *EmailService) NotifyNewWeek(ctx context.Context, childName string, weekNumber int) {
	subject := fmt.Sprintf("Week %d is ready for %s", weekNumber, childName)
	textBody := fmt.Sprintf(`Hi,

A new week of stories, activities and strategies is ready for %s.

Open the workbook: %s

---
This is an automated email from StoryWeek. Please do not reply.
`, childName, s.appBaseURL)

	s.send(ctx, subject, textBody)
}

// NotifyWeekComplete tells the caregiver the week has been wrapped up
func (s *EmailService) NotifyWeekComplete(ctx context.Context, childName string, weekNumber int) {
	subject := fmt.Sprintf("Week %d with %s is complete", weekNumber, childName)
	textBody := fmt.Sprintf(`Hi,

You've completed week %d with %s. Your reflection has been saved and will
shape next week's story and strategies.

Start the next week whenever you're ready: %s

---
This is an automated email from StoryWeek. Please do not reply.
`, weekNumber, childName, s.appBaseURL)

	s.send(ctx, subject, textBody)
}

func (s *EmailService) send(ctx context.Context, subject, textBody string) {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping email send (service disabled): %s", subject)
		}
		return
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		log.Printf("Failed to send email %q: %v", subject, err)
		return
	}
	log.Printf("Email sent: to=%s, subject=%s", s.toEmail, subject)
}
