package worker

import (
	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
)

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(cfg *config.Config, consumer mq.Consumer, store storage.ObjectStore) error {
	// --- 存储清理 Worker ---
	purgeWorker := NewPurgeWorker(consumer, store, cfg.RabbitMQ.PurgeQueue)
	if err := purgeWorker.Start(); err != nil {
		return err
	}

	logger.Info("All background workers started")
	return nil
}
