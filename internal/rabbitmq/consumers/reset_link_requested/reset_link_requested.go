package resetlinkrequested

import (
	"context"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/services"
	deliverresetlink "passreset/internal/core/services/deliver_reset_link"
	"passreset/internal/rabbitmq/schema"

	"github.com/rabbitmq/amqp091-go"
)

type consumer interface {
	Consume(
		queue, consumer string,
		autoAck, exclusive, noLocal, noWait bool,
		args amqp091.Table,
	) (<-chan amqp091.Delivery, error)
}

type Consumer struct {
	log     logging.Logger
	channel consumer
	queue   string
	service services.Service[deliverresetlink.Input, deliverresetlink.Result]
}

func New(
	log logging.Logger,
	channel consumer,
	queue string,
	service services.Service[deliverresetlink.Input, deliverresetlink.Result],
) *Consumer {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}

	return &Consumer{log: log, channel: channel, queue: queue, service: service}
}

func (c *Consumer) Consume() error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		c.log.Error(context.Background(), "Could not start consuming.", logging.Entry("err", err))
		return err
	}

	go func() {
		for delivery := range deliveries {
			c.Handle(context.Background(), delivery)
		}
	}()
	return nil
}

// Handle delivers one message. A failed delivery is requeued once, then
// dropped so a poisoned message cannot block the queue.
func (c *Consumer) Handle(ctx context.Context, delivery amqp091.Delivery) {
	message := &schema.ResetLinkRequested{}
	if err := message.Unmarshal(delivery.Body); err != nil {
		c.log.Error(
			ctx,
			"Could not unmarshal reset link message.",
			logging.Entry("err", err),
			logging.Entry("messageID", delivery.MessageId),
		)
		c.ack(ctx, delivery)
		return
	}

	request := message.DeliveryRequest()
	c.log.Info(ctx, "Got reset link for delivery.", logging.Entry("request", request))

	_, err := c.service.Run(ctx, deliverresetlink.Input{Request: request})
	if err == nil {
		c.ack(ctx, delivery)
		return
	}

	if delivery.Redelivered {
		c.log.Error(
			ctx,
			"Could not deliver reset link, message dropped.",
			logging.Entry("request", request),
			logging.Entry("err", err),
		)
		c.ack(ctx, delivery)
		return
	}

	c.log.Warning(
		ctx,
		"Could not deliver reset link, message requeued.",
		logging.Entry("request", request),
		logging.Entry("err", err),
	)
	if err := delivery.Nack(false, true); err != nil {
		c.log.Error(ctx, "Could not NACK AMQP message.", logging.Entry("err", err))
	}
}

func (c *Consumer) ack(ctx context.Context, delivery amqp091.Delivery) {
	if err := delivery.Ack(false); err != nil {
		c.log.Error(ctx, "Could not ACK AMQP message.", logging.Entry("err", err))
	}
}
