package reminder

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/pkg/errors"

	"gmatprep/internal/logger"
)

// sesClient is the part of *sesv2.Client the notifier uses
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier sends reminders through Amazon SES
type EmailNotifier struct {
	client    sesClient
	fromEmail string
	fromName  string
	toEmail   string
	log       *logger.Logger
}

// NewEmailNotifier loads the default AWS config for region and creates an SES client
func NewEmailNotifier(ctx context.Context, awsRegion, fromEmail, fromName, toEmail string, log *logger.Logger) (*EmailNotifier, error) {
	if fromEmail == "" || toEmail == "" {
		return nil, errors.New("email reminders need SES_FROM_EMAIL and REMINDER_EMAIL")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	log.Debug("email notifier enabled", "region", awsRegion, "from", fromEmail)
	return newEmailNotifier(sesv2.NewFromConfig(cfg), fromEmail, fromName, toEmail, log), nil
}

func newEmailNotifier(client sesClient, fromEmail, fromName, toEmail string, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
		log:       log,
	}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, r Reminder) error {
	fromAddress := n.fromEmail
	if n.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}

	htmlBody := fmt.Sprintf("<p>%s</p>", html.EscapeString(r.Text()))

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(r.Subject()),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(r.Text()),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return errors.Wrapf(err, "failed to send reminder email to %s", n.toEmail)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	n.log.Info("reminder email sent", "to", n.toEmail, "message_id", messageID)
	return nil
}
