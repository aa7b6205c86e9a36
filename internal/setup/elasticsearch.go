package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/search"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// InitSearchIndex 创建 Elasticsearch 客户端并确保数据集索引存在, 未启用时返回 nil
func InitSearchIndex(ctx context.Context, cfg *config.ElasticsearchConfig) (*search.ESIndex, error) {
	if !cfg.Enabled {
		logger.Info("Elasticsearch disabled, dataset search uses database LIKE")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	// 尝试连接并获取集群信息，验证连接是否成功
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	index := search.NewESIndex(client, cfg.Index)
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := index.EnsureIndex(ensureCtx); err != nil {
		return nil, err
	}

	logger.Info("Elasticsearch client initialized", zap.Strings("addresses", cfg.Addresses), zap.String("index", cfg.Index))
	return index, nil
}
