package email

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"passreset/internal/core/domain/reset"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesClient interface {
	SendTemplatedEmail(
		ctx context.Context,
		params *ses.SendTemplatedEmailInput,
		optFns ...func(*ses.Options),
	) (*ses.SendTemplatedEmailOutput, error)
}

type EmailSender struct {
	ses sesClient
	// This address must be verified with Amazon SES.
	sender                string
	passwordResetTemplate string
	now                   func() time.Time
}

func NewEmailSender(
	awsConfig aws.Config,
	sender string,
	passwordResetTemplate string,
	now func() time.Time,
) *EmailSender {
	return newEmailSender(ses.NewFromConfig(awsConfig), sender, passwordResetTemplate, now)
}

func newEmailSender(
	client sesClient,
	sender string,
	passwordResetTemplate string,
	now func() time.Time,
) *EmailSender {
	if now == nil {
		panic("Argument now must not be nil.")
	}
	return &EmailSender{
		ses:                   client,
		sender:                sender,
		passwordResetTemplate: passwordResetTemplate,
		now:                   now,
	}
}

func (s *EmailSender) SendResetLink(ctx context.Context, request reset.DeliveryRequest) error {
	if request.Email == "" {
		return errors.New("recipient email is not defined")
	}

	templateParamsBytes, err := json.Marshal(
		passwordResetTemplateParams{
			PasswordResetUrl: request.ResetURL,
			DisplayName:      request.DisplayName,
			ExpiresInMinutes: expiresInMinutes(request.ExpiresAt.Sub(s.now())),
		},
	)
	if err != nil {
		return err
	}
	templateParams := string(templateParamsBytes)

	email := string(request.Email)
	_, err = s.ses.SendTemplatedEmail(
		ctx,
		&ses.SendTemplatedEmailInput{
			Source: &s.sender,
			Destination: &types.Destination{
				CcAddresses: []string{},
				ToAddresses: []string{email},
			},
			Template:     &s.passwordResetTemplate,
			TemplateData: &templateParams,
		},
	)
	return err
}

func expiresInMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

type passwordResetTemplateParams struct {
	PasswordResetUrl string `json:"passwordResetUrl"`
	DisplayName      string `json:"displayName"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
}
