package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mapper"
	"github.com/3Eeeecho/go-datahub/internal/pkg/markdown"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mq"
	"github.com/3Eeeecho/go-datahub/internal/pkg/search"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultListLimit = 50

// Service 数据集目录的增删改查
type Service interface {
	ListDatasets(ctx context.Context, query string, limit, offset int) (*models.DatasetList, error)
	GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error)
	CreateDataset(ctx context.Context, req *models.CreateDatasetRequest) (*models.Dataset, error)
	UpdateDataset(ctx context.Context, id string, patch *models.DatasetPatch) (*models.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
}

// Deps 数据集服务的依赖, Index 与 Publisher 可以为 nil
type Deps struct {
	Datasets repositories.DatasetRepository
	Files    repositories.FileRepository
	TM       repositories.TransactionManager
	Store    storage.ObjectStore
	// Index 为 nil 时关键词搜索走数据库 LIKE
	Index search.DatasetIndex
	// Publisher 为 nil 时删除数据集后在请求内同步清理存储
	Publisher  mq.Publisher
	PurgeQueue string
	Now        func() time.Time
}

type service struct {
	Deps
}

var _ Service = (*service)(nil)

func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{Deps: deps}
}

func (s *service) ListDatasets(ctx context.Context, query string, limit, offset int) (*models.DatasetList, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	query = strings.TrimSpace(query)

	if query != "" && s.Index != nil {
		list, err := s.searchIndex(ctx, query, limit, offset)
		if err == nil {
			return list, nil
		}
		// 搜索服务不可用时退回数据库模糊查询
		logger.Warn("ListDatasets: Search failed, falling back to database", zap.String("query", query), zap.Error(err))
	}

	items, total, err := s.Datasets.List(ctx, repositories.DatasetQuery{Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}
	if items == nil {
		items = []models.Dataset{}
	}
	return &models.DatasetList{Items: items, Total: total}, nil
}

func (s *service) searchIndex(ctx context.Context, query string, limit, offset int) (*models.DatasetList, error) {
	ids, total, err := s.Index.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	items, err := s.Datasets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.DatasetList{Items: items, Total: total}, nil
}

func (s *service) GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error) {
	ds, err := s.Datasets.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}

	fileCount, err := s.Files.CountByDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}

	html, err := markdown.Render(ds.Description)
	if err != nil {
		// 渲染失败不影响详情展示
		logger.Warn("GetDataset: Failed to render description", zap.String("id", id), zap.Error(err))
	}

	return &models.DatasetDetail{
		Dataset:         ds,
		PreviewData:     mapper.PreviewRowMaps(ds.PreviewRows),
		FileCount:       fileCount,
		DescriptionHTML: html,
	}, nil
}

func (s *service) CreateDataset(ctx context.Context, req *models.CreateDatasetRequest) (*models.Dataset, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Author) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("dataset service: %w", xerr.ErrValidationFailed)
	}

	now := s.Now()
	ds, err := mapper.DatasetFromCreate(utils.NewDatasetID(req.Name, now), req)
	if err != nil {
		return nil, fmt.Errorf("dataset service: %v: %w", err, xerr.ErrInvalidParams)
	}
	ds.ApplyDefaults(now)

	if err := s.Datasets.Create(ctx, ds); err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}
	s.index(ctx, ds)

	logger.Info("CreateDataset success", zap.String("id", ds.ID), zap.String("name", ds.Name))
	return ds, nil
}

func (s *service) UpdateDataset(ctx context.Context, id string, patch *models.DatasetPatch) (*models.Dataset, error) {
	for _, required := range []*string{patch.Name, patch.Author, patch.Description} {
		if required != nil && strings.TrimSpace(*required) == "" {
			return nil, fmt.Errorf("dataset service: %w", xerr.ErrValidationFailed)
		}
	}

	children := repositories.DatasetChildren{}
	if patch.Splits != nil {
		splits := mapper.Splits(id, *patch.Splits)
		children.Splits = &splits
	}
	if patch.Features != nil {
		features := mapper.Features(id, *patch.Features)
		children.Features = &features
	}
	if patch.PreviewData != nil {
		rows, err := mapper.PreviewRows(id, *patch.PreviewData)
		if err != nil {
			return nil, fmt.Errorf("dataset service: %v: %w", err, xerr.ErrInvalidParams)
		}
		children.PreviewRows = &rows
	}

	if err := s.Datasets.Update(ctx, id, mapper.PatchColumns(patch, s.Now()), children); err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}

	ds, err := s.Datasets.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dataset service: %w", err)
	}
	s.index(ctx, ds)

	logger.Info("UpdateDataset success", zap.String("id", id))
	return ds, nil
}

// DeleteDataset 在事务中删除数据集与文件目录, 提交后清理索引与存储
// 存储清理失败只记录日志, 数据库记录已经删除
func (s *service) DeleteDataset(ctx context.Context, id string) error {
	err := s.TM.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.Files.DeleteByDataset(ctx, tx, id); err != nil {
			return err
		}
		return s.Datasets.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, xerr.ErrDatasetNotFound) {
			return fmt.Errorf("dataset service: %w", err)
		}
		logger.Error("DeleteDataset: Transaction failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("dataset service: %v: %w", err, xerr.ErrDatabaseError)
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			logger.Warn("DeleteDataset: Failed to remove dataset from search index", zap.String("id", id), zap.Error(err))
		}
	}

	s.purge(ctx, id)
	logger.Info("DeleteDataset success", zap.String("id", id))
	return nil
}

// purge 优先交给 worker 异步清理, 投递失败时同步清理
func (s *service) purge(ctx context.Context, id string) {
	if s.Publisher != nil {
		err := mq.PublishJSON(s.Publisher, s.PurgeQueue, models.PurgeDatasetTask{DatasetID: id})
		if err == nil {
			logger.Info("Dataset purge task published", zap.String("id", id), zap.String("queue", s.PurgeQueue))
			return
		}
		logger.Warn("Failed to publish purge task, purging inline", zap.String("id", id), zap.Error(err))
	}

	removed, err := storage.PurgePrefix(ctx, s.Store, storage.DatasetPrefix(id))
	if err != nil {
		logger.Error("Failed to purge dataset objects (need manual cleanup)",
			zap.String("id", id), zap.Int("removed", removed), zap.Error(err))
		return
	}
	logger.Info("Dataset objects purged", zap.String("id", id), zap.Int("removed", removed))
}

// index 写入搜索索引, 失败只告警, 搜索会退回数据库查询
func (s *service) index(ctx context.Context, ds *models.Dataset) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, ds); err != nil {
		logger.Warn("Failed to index dataset", zap.String("id", ds.ID), zap.Error(err))
	}
}
