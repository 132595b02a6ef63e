package resetnotifier

import (
	"context"
	"passreset/internal/core/domain/reset"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type slowSender struct {
	deadline time.Time
	hasLimit bool
}

func (s *slowSender) SendResetLink(ctx context.Context, request reset.DeliveryRequest) error {
	s.deadline, s.hasLimit = ctx.Deadline()
	return nil
}

func TestDirectSendsRightAway(t *testing.T) {
	sender := reset.NewFakeNotifier()
	notifier := NewDirect(sender, time.Second)
	request := reset.DeliveryRequest{Email: "john@example.com", ResetURL: "https://app.example.com"}

	err := notifier.Notify(context.Background(), request)

	require.NoError(t, err)
	require.Equal(t, request, sender.LastSent())
}

func TestDirectAppliesTimeout(t *testing.T) {
	sender := &slowSender{}
	notifier := NewDirect(sender, time.Second)

	err := notifier.Notify(context.Background(), reset.DeliveryRequest{})

	require.NoError(t, err)
	require.True(t, sender.hasLimit)
	require.WithinDuration(t, time.Now().Add(time.Second), sender.deadline, time.Second)
}

func TestDirectPropagatesFailure(t *testing.T) {
	sender := reset.NewFakeNotifier()
	sender.ReturnError = true

	err := NewDirect(sender, 0).Notify(context.Background(), reset.DeliveryRequest{})

	require.Error(t, err)
}
