package deliverresetlink

import (
	"context"
	"fmt"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	"time"
)

type Input struct {
	Request reset.DeliveryRequest
}

type Result struct {
	Sent bool
}

type service struct {
	log     logging.Logger
	sender  reset.LinkSender
	timeout time.Duration
	now     func() time.Time
}

func New(
	log logging.Logger,
	sender reset.LinkSender,
	timeout time.Duration,
	now func() time.Time,
) *service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if sender == nil {
		panic(e.NewNilArgumentError("sender"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{log: log, sender: sender, timeout: timeout, now: now}
}

// Run sends the link unless it has already expired, which happens when the
// queue was backed up for longer than the token lifetime.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	request := input.Request
	if !s.now().Before(request.ExpiresAt) {
		s.log.Info(ctx, "Reset link expired before delivery, dropped.", logging.Entry("request", request))
		return result, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sender.SendResetLink(ctx, request); err != nil {
		return result, fmt.Errorf("could not send reset link for %v: %w", request, err)
	}

	s.log.Info(ctx, "Reset link has been sent.", logging.Entry("request", request))
	result.Sent = true
	return result, nil
}
