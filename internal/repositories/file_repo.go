package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -destination=../../mocks/mock_file_repository.go -package=mocks github.com/3Eeeecho/go-datahub/internal/repositories FileRepository

// FileRepository 是数据集文件目录 (dataset_files) 的访问接口
type FileRepository interface {
	// FindByPathPrefix 返回 path 以 prefix 开头的全部文件, prefix 为空表示整个数据集
	FindByPathPrefix(ctx context.Context, datasetID, prefix string) ([]models.FileRecord, error)
	// FindPreviewData 返回预计算的表格预览, 文件不存在或无预览时返回 nil
	FindPreviewData(ctx context.Context, datasetID, path string) (datatypes.JSON, error)
	// Upsert 按 (dataset_id, path) 写入或覆盖
	Upsert(ctx context.Context, records []models.FileRecord) error
	// CountByDataset 数据集文件总数
	CountByDataset(ctx context.Context, datasetID string) (int64, error)
	// DeleteByDataset 删除数据集的全部文件记录, tx 为空时使用默认连接
	DeleteByDataset(ctx context.Context, tx *gorm.DB, datasetID string) error
}

// 树形列表只需要这几列, 不加载体积较大的 preview_data
var treeColumns = []string{"dataset_id", "path", "name", "type", "size", "oss_url"}

const upsertBatchSize = 200

type dbFileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &dbFileRepository{db: db}
}

// escapeLike 转义 LIKE 通配符, 使用 ! 作为转义符以兼容 MySQL 与 SQLite
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func (r *dbFileRepository) FindByPathPrefix(ctx context.Context, datasetID, prefix string) ([]models.FileRecord, error) {
	var records []models.FileRecord
	query := r.db.WithContext(ctx).Select(treeColumns).Where("dataset_id = ?", datasetID)
	if prefix != "" {
		query = query.Where("path LIKE ? ESCAPE '!'", escapeLike(prefix)+"%")
	}
	if err := query.Find(&records).Error; err != nil {
		logger.Error("FindByPathPrefix: Failed to query files", zap.String("datasetID", datasetID), zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("find files by prefix: %w", err)
	}

	// LIKE 在默认排序规则下不区分大小写, 这里按字节再过滤一次
	out := records[:0]
	for _, rec := range records {
		if strings.HasPrefix(rec.Path, prefix) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *dbFileRepository) FindPreviewData(ctx context.Context, datasetID, path string) (datatypes.JSON, error) {
	var rec models.FileRecord
	err := r.db.WithContext(ctx).
		Select("preview_data").
		Where("dataset_id = ? AND path = ?", datasetID, path).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("FindPreviewData: Failed to query preview", zap.String("datasetID", datasetID), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("find preview data: %w", err)
	}
	if !rec.HasPreviewData() {
		return nil, nil
	}
	return rec.PreviewData, nil
}

func (r *dbFileRepository) Upsert(ctx context.Context, records []models.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dataset_id"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "size", "oss_url", "preview_data", "updated_at"}),
		}).
		CreateInBatches(&records, upsertBatchSize).Error
	if err != nil {
		logger.Error("Upsert: Failed to write file records", zap.String("datasetID", records[0].DatasetID), zap.Int("count", len(records)), zap.Error(err))
		return fmt.Errorf("upsert file records: %w", xerr.ErrDatabaseError)
	}
	return nil
}

func (r *dbFileRepository) CountByDataset(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.FileRecord{}).Where("dataset_id = ?", datasetID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count file records: %w", err)
	}
	return n, nil
}

func (r *dbFileRepository) DeleteByDataset(ctx context.Context, tx *gorm.DB, datasetID string) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if err := db.WithContext(ctx).Where("dataset_id = ?", datasetID).Delete(&models.FileRecord{}).Error; err != nil {
		logger.Error("DeleteByDataset: Failed to delete file records", zap.String("datasetID", datasetID), zap.Error(err))
		return fmt.Errorf("delete file records: %w", err)
	}
	return nil
}
