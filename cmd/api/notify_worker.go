package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/campusdesk/issue-tracker/internal/config"
	"github.com/campusdesk/issue-tracker/internal/notify"
	"github.com/campusdesk/issue-tracker/internal/persistence"
	"github.com/campusdesk/issue-tracker/internal/worker"
)

var notifyWorkerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Deliver queued assignment notifications",
	RunE:  runNotifyWorker,
}

func runNotifyWorker(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var consumer notify.Consumer
	switch rt.cfg.Notification.Transport {
	case config.TransportRedis:
		redis := persistence.NewRedis(rt.cfg.Redis, rt.logger)
		defer redis.Close()
		consumer = notify.NewRedisQueue(redis.Client, rt.cfg.Notification.RedisQueue, rt.logger)
	case config.TransportKafka:
		consumer = notify.NewKafkaConsumer(rt.cfg.Kafka, rt.logger)
	default:
		return fmt.Errorf("notify-worker needs NOTIFY_TRANSPORT=redis or kafka, got %q", rt.cfg.Notification.Transport)
	}

	w := worker.NewNotificationWorker(consumer, worker.NewLogMailer(rt.logger), rt.logger)
	return w.Run(ctx)
}
