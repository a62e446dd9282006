// Package email sends notification emails through Amazon SES
package email

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"holdthatthought-backend/application/ports"
	apperrors "holdthatthought-backend/pkg/errors"
)

// SESSender implements ports.EmailSender using the SES v2 API
type SESSender struct {
	client    *sesv2.Client
	fromEmail string
	logger    *zap.Logger
}

// NewSESSender creates a sender using fromEmail as the verified identity
func NewSESSender(client *sesv2.Client, fromEmail string, logger *zap.Logger) ports.EmailSender {
	return &SESSender{client: client, fromEmail: fromEmail, logger: logger}
}

// Send delivers one HTML email
func (s *SESSender) Send(ctx context.Context, to, subject, bodyHTML string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(bodyHTML)},
				},
			},
		},
	})
	if err != nil {
		return apperrors.NewExternalError("send email", err)
	}

	s.logger.Debug("Notification email sent", zap.String("subject", subject))
	return nil
}
