// Command auditlog consumes audit events from RabbitMQ and appends them to
// a log file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/config"
	"github.com/fitnesshub/program-tracker/internal/logger"
	"github.com/fitnesshub/program-tracker/internal/queue"
)

func main() {
	path := flag.String("out", "logs/audit.log", "file the audit lines are appended to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync(log)

	audit, closer, err := queue.OpenAuditLog(*path)
	if err != nil {
		log.Fatal("open audit log", zap.Error(err))
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consuming audit events", zap.String("queue", queue.AuditQueueName), zap.String("out", *path))
	if err := queue.Consume(ctx, cfg.RabbitMQURL, audit.Handle, log); err != nil && ctx.Err() == nil {
		log.Fatal("consume", zap.Error(err))
	}
}
