package resetnotifier

import (
	"context"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/reset"
	"time"
)

// Direct sends the link through SES right away instead of queueing it.
type Direct struct {
	sender  reset.LinkSender
	timeout time.Duration
}

func NewDirect(sender reset.LinkSender, timeout time.Duration) *Direct {
	if sender == nil {
		panic(e.NewNilArgumentError("sender"))
	}
	return &Direct{sender: sender, timeout: timeout}
}

func (n *Direct) Notify(ctx context.Context, request reset.DeliveryRequest) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	return n.sender.SendResetLink(ctx, request)
}
