package explorer

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"go.uber.org/zap"
)

// FileTreeService 按目录逐层浏览数据集文件
type FileTreeService interface {
	// ListFolder 列出 path 下的直接子节点; 不存在的目录与空目录一样返回空列表
	ListFolder(ctx context.Context, datasetID, path string, limit int, cursor string) (*models.FolderListing, error)
}

type fileTreeService struct {
	fileRepo repositories.FileRepository
}

var _ FileTreeService = (*fileTreeService)(nil)

func NewFileTreeService(fileRepo repositories.FileRepository) FileTreeService {
	return &fileTreeService{fileRepo: fileRepo}
}

func (s *fileTreeService) ListFolder(ctx context.Context, datasetID, path string, limit int, cursor string) (*models.FolderListing, error) {
	prefix := NormalizePrefix(path)

	// 每次都取整棵子树, 目录的 ChildCount 需要统计所有层级
	rows, err := s.fileRepo.FindByPathPrefix(ctx, datasetID, prefix)
	if err != nil {
		logger.Error("ListFolder: Failed to load file records",
			zap.String("datasetID", datasetID), zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("file tree service: %w", xerr.ErrListFilesFailed)
	}

	listing := BuildFolderListing(rows, prefix, limit, cursor)
	logger.Debug("ListFolder success",
		zap.String("datasetID", datasetID),
		zap.String("prefix", prefix),
		zap.Int("subtreeRows", len(rows)),
		zap.Int("returned", len(listing.Items)),
		zap.Bool("hasMore", listing.HasMore))
	return &listing, nil
}
