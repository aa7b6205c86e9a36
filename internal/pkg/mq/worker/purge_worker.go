package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// 单条清理任务的超时, 大数据集需要多批删除
const purgeTimeout = 5 * time.Minute

// PurgeWorker 消费数据集删除后的存储清理任务
type PurgeWorker struct {
	consumer mq.Consumer
	store    storage.ObjectStore
	queue    string
}

func NewPurgeWorker(consumer mq.Consumer, store storage.ObjectStore, queue string) *PurgeWorker {
	return &PurgeWorker{
		consumer: consumer,
		store:    store,
		queue:    queue,
	}
}

func (w *PurgeWorker) Start() error {
	if _, err := w.consumer.DeclareQueue(w.queue); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", w.queue, err)
	}
	if err := w.consumer.Consume(w.queue, w.Handle); err != nil {
		return fmt.Errorf("failed to consume from %s: %w", w.queue, err)
	}
	logger.Info("Purge worker started", zap.String("queue", w.queue))
	return nil
}

// Handle 处理一条消息: 成功 ack, 存储失败重新入队, 消息格式错误直接丢弃
func (w *PurgeWorker) Handle(msg amqp.Delivery) {
	var task models.PurgeDatasetTask
	if err := json.Unmarshal(msg.Body, &task); err != nil || task.DatasetID == "" {
		logger.Error("Failed to unmarshal purge task", zap.ByteString("body", msg.Body), zap.Error(err))
		_ = msg.Reject(false)
		return
	}

	logger.Info("Received dataset purge task", zap.String("datasetID", task.DatasetID))

	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	removed, err := storage.PurgePrefix(ctx, w.store, storage.DatasetPrefix(task.DatasetID))
	if err != nil {
		logger.Error("Failed to purge dataset objects",
			zap.String("datasetID", task.DatasetID),
			zap.Int("removed", removed),
			zap.Error(err))
		_ = msg.Nack(false, true) // 重新入队
		return
	}

	logger.Info("Successfully purged dataset objects",
		zap.String("datasetID", task.DatasetID),
		zap.Int("removed", removed))
	_ = msg.Ack(false)
}
