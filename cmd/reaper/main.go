package main

import (
	"context"
	"os"
	"os/signal"
	"passreset/internal/app/deps"
	"passreset/internal/app/services"
	"passreset/internal/core/domain/logging"
	purgetokens "passreset/internal/core/services/purge_tokens"
	"syscall"

	"github.com/robfig/cron/v3"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	log := deps.Logger
	defer shutdownDeps()

	services := services.InitServices(deps)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(deps.Config.ReaperSchedule, func() {
		log.Info(context.Background(), "Launching reset token purge.")
		result, err := services.PurgeTokens.Run(context.Background(), purgetokens.Input{})
		if err != nil {
			log.Error(context.Background(), "Purge service returned an error.", logging.Entry("err", err))
			return
		}
		log.Info(
			context.Background(),
			"Reset token purge finished.",
			logging.Entry("skipped", result.Skipped),
			logging.Entry("deleted", result.Deleted),
		)
	})
	if err != nil {
		log.Error(
			context.Background(),
			"Invalid reaper schedule.",
			logging.Entry("schedule", deps.Config.ReaperSchedule),
			logging.Entry("err", err),
		)
		panic(err)
	}

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(
		context.Background(),
		"Starting periodic reset token reaper.",
		logging.Entry("schedule", deps.Config.ReaperSchedule),
		logging.Entry("retention", deps.Config.ReaperRetention.String()),
	)
	scheduler.Start()

	<-stopCh
	log.Info(context.Background(), "Stopping periodic reset token reaper.")
	<-scheduler.Stop().Done()
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
