package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"go.uber.org/zap"
)

// InitStorage 按 storage.type 创建对象存储并确保存储桶存在
func InitStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	store, err := storage.NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	// 网络延迟较大时创建存储桶可能较慢
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ensureCtx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Storage.Bucket, err)
	}

	logger.Info("Object store initialized", zap.String("type", cfg.Storage.Type), zap.String("bucket", cfg.Storage.Bucket))
	return store, nil
}
