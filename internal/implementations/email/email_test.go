package email

import (
	"context"
	"encoding/json"
	"errors"
	"passreset/internal/core/domain/reset"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var NOW = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSES struct {
	inputs []*ses.SendTemplatedEmailInput
	err    error
}

func (f *fakeSES) SendTemplatedEmail(
	ctx context.Context,
	params *ses.SendTemplatedEmailInput,
	optFns ...func(*ses.Options),
) (*ses.SendTemplatedEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	return &ses.SendTemplatedEmailOutput{}, f.err
}

func request() reset.DeliveryRequest {
	return reset.DeliveryRequest{
		TokenID:     uuid.New(),
		AccountID:   1,
		Email:       "john@example.com",
		DisplayName: "John",
		ResetURL:    "https://app.example.com/reset-password?token=abc",
		ExpiresAt:   NOW.Add(59*time.Minute + 30*time.Second),
	}
}

func TestSendResetLink(t *testing.T) {
	client := &fakeSES{}
	sender := newEmailSender(client, "noreply@example.com", "password-reset", func() time.Time { return NOW })

	err := sender.SendResetLink(context.Background(), request())

	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	require.Equal(t, "noreply@example.com", *input.Source)
	require.Equal(t, "password-reset", *input.Template)
	require.Equal(t, []string{"john@example.com"}, input.Destination.ToAddresses)

	var params map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*input.TemplateData), &params))
	require.Equal(t, "https://app.example.com/reset-password?token=abc", params["passwordResetUrl"])
	require.Equal(t, "John", params["displayName"])
	require.Equal(t, float64(60), params["expiresInMinutes"])
}

func TestSendResetLinkFailure(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	sender := newEmailSender(client, "noreply@example.com", "password-reset", func() time.Time { return NOW })

	err := sender.SendResetLink(context.Background(), request())

	require.ErrorIs(t, err, client.err)
}

func TestSendResetLinkWithoutEmail(t *testing.T) {
	client := &fakeSES{}
	sender := newEmailSender(client, "noreply@example.com", "password-reset", func() time.Time { return NOW })
	r := request()
	r.Email = ""

	err := sender.SendResetLink(context.Background(), r)

	require.Error(t, err)
	require.Empty(t, client.inputs)
}

func TestExpiresInMinutes(t *testing.T) {
	require.Equal(t, 0, expiresInMinutes(-time.Minute))
	require.Equal(t, 1, expiresInMinutes(time.Second))
	require.Equal(t, 60, expiresInMinutes(time.Hour))
}
