package consumers

import (
	"context"
	"passreset/internal/app/deps"
	"passreset/internal/app/services"
	dl "passreset/internal/core/domain/logging"
	resetlinkrequested "passreset/internal/rabbitmq/consumers/reset_link_requested"
)

const resetLinkPrefetch = 10

func initResetLinkRequestedConsumer(deps *deps.Deps, services *services.Services) func() {
	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}

	queue := deps.Config.RabbitmqResetLinkQueue
	if err := rabbitmqChannel.DeclareQueue(queue, resetLinkPrefetch); err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ queue.", dl.Entry("err", err))
		panic(err)
	}

	resetLinkRequestedConsumer := resetlinkrequested.New(
		deps.Logger,
		rabbitmqChannel,
		queue,
		services.DeliverResetLink,
	)
	if err = resetLinkRequestedConsumer.Consume(); err != nil {
		deps.Logger.Error(
			context.Background(),
			"Could not start RabbitMQ consuming.",
			dl.Entry("err", err),
			dl.Entry("queue", queue),
		)
		panic(err)
	}

	deps.Logger.Info(context.Background(), "Consumer has started.", dl.Entry("queue", queue))
	return func() { rabbitmqChannel.Close() }
}

func InitConsumers(deps *deps.Deps, services *services.Services) func() {
	shutdownResetLinkRequestedConsumer := initResetLinkRequestedConsumer(deps, services)

	return func() {
		shutdownResetLinkRequestedConsumer()
	}
}
