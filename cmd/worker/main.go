package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-datahub/internal/setup"
	"go.uber.org/zap"
)

// 存储清理 worker, 消费删除数据集后投递的清理任务
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err = os.MkdirAll("logs", 0755); err != nil {
		logger.Fatal("Failed to create logs directory", zap.Error(err))
	}
	logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level)
	defer logger.Sync()

	if !cfg.RabbitMQ.Enabled {
		logger.Fatal("rabbitmq.enabled must be true to run the purge worker")
	}

	store, err := setup.InitStorage(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// 每次只取一条, 清理大数据集时不会堆积未确认消息
	client, err := setup.InitRabbitMQ(&cfg.RabbitMQ, 1)
	if err != nil {
		logger.Fatal("Failed to initialize RabbitMQ", zap.Error(err))
	}
	defer client.Close()

	if err := worker.StartAllWorkers(cfg, client, store); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stopChan:
		logger.Info("Purge worker shutting down")
	case amqpErr := <-client.NotifyClose():
		if amqpErr != nil {
			logger.Error("RabbitMQ connection closed", zap.Int("code", amqpErr.Code), zap.String("reason", amqpErr.Reason))
		}
	}
}
