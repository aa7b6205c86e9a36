package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DatasetQuery 数据集列表查询条件
type DatasetQuery struct {
	Query  string // 名称/描述/作者 模糊匹配
	Limit  int
	Offset int
}

// DatasetChildren 更新时需要整体替换的子表, nil 表示不修改, 行的 DatasetID 需已设置
type DatasetChildren struct {
	Splits      *[]models.DatasetSplit
	Features    *[]models.DatasetFeature
	PreviewRows *[]models.DatasetPreviewRow
}

// DatasetRepository 数据集仓储接口
type DatasetRepository interface {
	Create(ctx context.Context, dataset *models.Dataset) error
	FindByID(ctx context.Context, id string) (*models.Dataset, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Dataset, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, q DatasetQuery) ([]models.Dataset, int64, error)
	Update(ctx context.Context, id string, fields map[string]any, children DatasetChildren) error
	UpdateSize(ctx context.Context, id, size string) error
	// Delete 在给定事务中删除数据集及其子表
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type dbDatasetRepository struct {
	db *gorm.DB
}

func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &dbDatasetRepository{db: db}
}

func (r *dbDatasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	// 子表随主表一起写入
	if err := r.db.WithContext(ctx).Omit("Files").Create(dataset).Error; err != nil {
		logger.Error("Create: Failed to create dataset in DB", zap.String("id", dataset.ID), zap.Error(err))
		return fmt.Errorf("failed to create dataset: %w", xerr.ErrDatabaseError)
	}
	return nil
}

func (r *dbDatasetRepository) FindByID(ctx context.Context, id string) (*models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).
		Preload("Splits", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Features", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("PreviewRows", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		Take(&dataset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrDatasetNotFound
		}
		logger.Error("FindByID: Failed to query dataset", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to find dataset: %w", xerr.ErrDatabaseError)
	}
	return &dataset, nil
}

// FindByIDs 按传入顺序返回存在的数据集, 用于还原搜索结果的相关度排序
func (r *dbDatasetRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Dataset, error) {
	if len(ids) == 0 {
		return []models.Dataset{}, nil
	}
	var rows []models.Dataset
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		logger.Error("FindByIDs: Failed to query datasets", zap.Strings("ids", ids), zap.Error(err))
		return nil, fmt.Errorf("failed to find datasets: %w", xerr.ErrDatabaseError)
	}
	byID := make(map[string]models.Dataset, len(rows))
	for _, d := range rows {
		byID[d.ID] = d
	}
	out := make([]models.Dataset, 0, len(rows))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *dbDatasetRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Dataset{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check dataset: %w", xerr.ErrDatabaseError)
	}
	return n > 0, nil
}

func (r *dbDatasetRepository) List(ctx context.Context, q DatasetQuery) ([]models.Dataset, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Dataset{})
	if q.Query != "" {
		like := "%" + escapeLike(q.Query) + "%"
		query = query.Where("name LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!' OR author LIKE ? ESCAPE '!'", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("List: Failed to count datasets", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count datasets: %w", xerr.ErrDatabaseError)
	}

	var rows []models.Dataset
	err := query.Order("updated_at DESC").Order("created_at DESC").
		Limit(q.Limit).Offset(q.Offset).
		Find(&rows).Error
	if err != nil {
		logger.Error("List: Failed to query datasets", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list datasets: %w", xerr.ErrDatabaseError)
	}
	return rows, total, nil
}

func (r *dbDatasetRepository) Update(ctx context.Context, id string, fields map[string]any, children DatasetChildren) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Dataset{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			logger.Error("Update: Failed to update dataset", zap.String("id", id), zap.Error(res.Error))
			return fmt.Errorf("failed to update dataset: %w", xerr.ErrDatabaseError)
		}
		if res.RowsAffected == 0 {
			// 字段值未变化时 RowsAffected 也可能为 0, 再确认一次是否存在
			var n int64
			if err := tx.Model(&models.Dataset{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to check dataset: %w", xerr.ErrDatabaseError)
			}
			if n == 0 {
				return xerr.ErrDatasetNotFound
			}
		}

		if children.Splits != nil {
			if err := replaceChildren(tx, id, *children.Splits); err != nil {
				return err
			}
		}
		if children.Features != nil {
			if err := replaceChildren(tx, id, *children.Features); err != nil {
				return err
			}
		}
		if children.PreviewRows != nil {
			if err := replaceChildren(tx, id, *children.PreviewRows); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceChildren 删除旧的子表记录后写入新记录, rows 的 DatasetID 由调用方设置
func replaceChildren[T any](tx *gorm.DB, datasetID string, rows []T) error {
	if err := tx.Where("dataset_id = ?", datasetID).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("failed to clear dataset children: %w", xerr.ErrDatabaseError)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write dataset children: %w", xerr.ErrDatabaseError)
	}
	return nil
}

func (r *dbDatasetRepository) UpdateSize(ctx context.Context, id, size string) error {
	res := r.db.WithContext(ctx).Model(&models.Dataset{}).Where("id = ?", id).Update("size", size)
	if res.Error != nil {
		logger.Error("UpdateSize: Failed to update dataset size", zap.String("id", id), zap.Error(res.Error))
		return fmt.Errorf("failed to update dataset size: %w", xerr.ErrDatabaseError)
	}
	return nil
}

func (r *dbDatasetRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := tx
	if db == nil {
		db = r.db
	}
	db = db.WithContext(ctx)
	for _, child := range []any{&models.DatasetSplit{}, &models.DatasetFeature{}, &models.DatasetPreviewRow{}} {
		if err := db.Where("dataset_id = ?", id).Delete(child).Error; err != nil {
			logger.Error("Delete: Failed to delete dataset children", zap.String("id", id), zap.Error(err))
			return fmt.Errorf("failed to delete dataset children: %w", xerr.ErrDatabaseError)
		}
	}
	res := db.Where("id = ?", id).Delete(&models.Dataset{})
	if res.Error != nil {
		logger.Error("Delete: Failed to delete dataset", zap.String("id", id), zap.Error(res.Error))
		return fmt.Errorf("failed to delete dataset: %w", xerr.ErrDatabaseError)
	}
	if res.RowsAffected == 0 {
		return xerr.ErrDatasetNotFound
	}
	return nil
}
