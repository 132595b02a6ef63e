package main

import (
	"context"
	"os"
	"os/signal"
	"passreset/internal/app/consumers"
	"passreset/internal/app/deps"
	"passreset/internal/app/services"
	"syscall"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	defer shutdownDeps()

	services := services.InitServices(deps)
	shutdownConsumers := consumers.InitConsumers(deps, services)

	stopCh, closeCh := createChannel()
	defer closeCh()

	<-stopCh
	deps.Logger.Info(context.Background(), "Stopping reset link mailer.")
	shutdownConsumers()
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
