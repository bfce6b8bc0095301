package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESEmailService notifies the portal operator over AWS SES.
type AWSSESEmailService struct {
	sesClient       *ses.Client
	fromAddress     string
	operatorAddress string
	logger          *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, operatorAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:       ses.NewFromConfig(cfg),
		fromAddress:     fromAddress,
		operatorAddress: operatorAddress,
		logger:          logger,
	}, nil
}

// SendLockoutNotice mails the operator when the login throttle deactivates
// an account.
func (s *AWSSESEmailService) SendLockoutNotice(ctx context.Context, username string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	textBody := fmt.Sprintf(`Account locked

The account %q was deactivated at %s after repeated failed login attempts.

The account stays inactive until an administrator unlocks it from the user
management panel.

This is an automated message. Please do not reply to this email.
`, username, now)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.operatorAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Account locked: %s", username)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send lockout notice via SES",
			slog.String("username", username),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("lockout notice sent",
		slog.String("message_id", *result.MessageId))

	return nil
}
