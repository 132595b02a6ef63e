package resetlink

import (
	"context"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	"passreset/internal/rabbitmq/schema"
	"strconv"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type publisher interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp091.Publishing,
	) error
}

// RabbitMQ queues reset links for the mailer on the default exchange.
type RabbitMQ struct {
	log     logging.Logger
	channel publisher
	queue   string
	timeout time.Duration
}

func NewRabbitMQ(log logging.Logger, channel publisher, queue string, timeout time.Duration) *RabbitMQ {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	return &RabbitMQ{log: log, channel: channel, queue: queue, timeout: timeout}
}

func (s *RabbitMQ) Notify(ctx context.Context, request reset.DeliveryRequest) error {
	message := schema.NewResetLinkRequested(request)
	body, err := message.Marshal()
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err = s.channel.PublishWithContext(ctx, "", s.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    request.TokenID.String(),
		Timestamp:    time.Now().UTC(),
		Expiration:   expiration(request.ExpiresAt),
		Body:         body,
	})
	if err != nil {
		return err
	}
	s.log.Info(
		ctx,
		"AMQP message has been successfully published.",
		logging.Entry("queue", s.queue),
		logging.Entry("tokenID", request.TokenID),
	)
	return nil
}

// expiration lets the broker drop links nobody could use anymore.
func expiration(expiresAt time.Time) string {
	ttl := time.Until(expiresAt).Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	return strconv.FormatInt(ttl, 10)
}
