package setup

import (
	"fmt"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
)

// InitRabbitMQ 连接 RabbitMQ, 未启用时返回 nil, 此时删除数据集在请求内同步清理存储
func InitRabbitMQ(cfg *config.RabbitMQConfig, prefetch int) (*mq.RabbitMQClient, error) {
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, dataset storage is purged inline")
		return nil, nil
	}
	client, err := mq.NewRabbitMQClient(cfg.URL, prefetch)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	logger.Info("Connected to RabbitMQ")
	return client, nil
}
