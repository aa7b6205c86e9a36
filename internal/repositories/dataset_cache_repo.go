package repositories

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/cache"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notFoundTTL = time.Minute

type cachedDatasetRepository struct {
	next  DatasetRepository // 被装饰的数据库仓储
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedDatasetRepository 为数据集详情与列表加一层 Redis 缓存
func NewCachedDatasetRepository(next DatasetRepository, c cache.Cache, ttl time.Duration) DatasetRepository {
	return &cachedDatasetRepository{next: next, cache: c, ttl: ttl}
}

// jitteredTTL 随机延长过期时间, 避免大量 key 同时失效
func (r *cachedDatasetRepository) jitteredTTL() time.Duration {
	return r.ttl + time.Duration(rand.Intn(300))*time.Second
}

type cachedDataset struct {
	NotFound bool            `json:"notFound,omitempty"`
	Dataset  *models.Dataset `json:"dataset,omitempty"`
	// PreviewRows 在模型上不参与 JSON 序列化, 单独保存
	PreviewRows []models.DatasetPreviewRow `json:"previewRows,omitempty"`
}

type cachedList struct {
	Items []models.Dataset `json:"items"`
	Total int64            `json:"total"`
}

func (r *cachedDatasetRepository) FindByID(ctx context.Context, id string) (*models.Dataset, error) {
	key := cache.DatasetKey(id)

	var hit cachedDataset
	err := r.cache.Get(ctx, key, &hit)
	switch {
	case err == nil && hit.NotFound:
		return nil, xerr.ErrDatasetNotFound
	case err == nil && hit.Dataset != nil:
		hit.Dataset.ID = id
		hit.Dataset.PreviewRows = hit.PreviewRows
		return hit.Dataset, nil
	case err != nil && !errors.Is(err, xerr.ErrCacheMiss):
		logger.Warn("FindByID: Error reading dataset from cache", zap.String("id", id), zap.Error(err))
	}

	dataset, err := r.next.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, xerr.ErrDatasetNotFound) {
			_ = r.cache.Set(ctx, key, cachedDataset{NotFound: true}, notFoundTTL)
		}
		return nil, err
	}

	if err := r.cache.Set(ctx, key, cachedDataset{Dataset: dataset, PreviewRows: dataset.PreviewRows}, r.jitteredTTL()); err != nil {
		logger.Warn("FindByID: Failed to cache dataset", zap.String("id", id), zap.Error(err))
	}
	return dataset, nil
}

func (r *cachedDatasetRepository) List(ctx context.Context, q DatasetQuery) ([]models.Dataset, int64, error) {
	key := cache.DatasetListKey(q.Query, q.Limit, q.Offset)

	var hit cachedList
	if err := r.cache.Get(ctx, key, &hit); err == nil {
		return hit.Items, hit.Total, nil
	} else if !errors.Is(err, xerr.ErrCacheMiss) {
		logger.Warn("List: Error reading dataset list from cache", zap.String("key", key), zap.Error(err))
	}

	items, total, err := r.next.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if err := r.cache.Set(ctx, key, cachedList{Items: items, Total: total}, r.jitteredTTL()); err == nil {
		_ = r.cache.SAdd(ctx, cache.DatasetListIndexKey(), key)
	}
	return items, total, nil
}

// invalidate 删除详情缓存与全部列表缓存, 失败只记录日志
func (r *cachedDatasetRepository) invalidate(ctx context.Context, id string) {
	keys := []string{cache.DatasetKey(id), cache.DatasetListIndexKey()}
	listKeys, err := r.cache.SMembers(ctx, cache.DatasetListIndexKey())
	if err != nil {
		logger.Warn("invalidate: Failed to read list cache index", zap.Error(err))
	}
	keys = append(keys, listKeys...)
	if err := r.cache.Del(ctx, keys...); err != nil {
		logger.Warn("invalidate: Failed to delete dataset cache", zap.String("id", id), zap.Error(err))
	}
}

func (r *cachedDatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	if err := r.next.Create(ctx, dataset); err != nil {
		return err
	}
	r.invalidate(ctx, dataset.ID)
	return nil
}

func (r *cachedDatasetRepository) Update(ctx context.Context, id string, fields map[string]any, children DatasetChildren) error {
	if err := r.next.Update(ctx, id, fields, children); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedDatasetRepository) UpdateSize(ctx context.Context, id, size string) error {
	if err := r.next.UpdateSize(ctx, id, size); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedDatasetRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if err := r.next.Delete(ctx, tx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedDatasetRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Dataset, error) {
	return r.next.FindByIDs(ctx, ids)
}

func (r *cachedDatasetRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.next.Exists(ctx, id)
}
