package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"go.uber.org/zap"
)

const (
	ParquetPreviewUnavailable = "Parquet preview not available. Please use the CLI to upload with preview data."
	PreviewNotSupported       = "Preview not supported for this file type"
)

// PreviewService 按文件类型生成预览内容
type PreviewService interface {
	GetPreview(ctx context.Context, datasetID, path string) (models.Preview, error)
}

type previewService struct {
	store    storage.ObjectStore
	fileRepo repositories.FileRepository
	cfg      config.PreviewConfig
}

var _ PreviewService = (*previewService)(nil)

func NewPreviewService(store storage.ObjectStore, fileRepo repositories.FileRepository, cfg config.PreviewConfig) PreviewService {
	return &previewService{store: store, fileRepo: fileRepo, cfg: cfg}
}

// GetPreview 类型由 path 的扩展名重新判定, 不信任调用方或库里记录的类型
// 读取存储或目录失败时返回 xerr.ErrPreviewFailed, 不做重试
func (s *previewService) GetPreview(ctx context.Context, datasetID, path string) (models.Preview, error) {
	if path == "" {
		return nil, fmt.Errorf("preview service: %w", xerr.ErrFilePathRequired)
	}
	clean := utils.CleanRelPath(path)
	if clean == "" {
		return nil, fmt.Errorf("preview service: %q: %w", path, xerr.ErrFilePathInvalid)
	}

	key := storage.DatasetObjectKey(datasetID, clean)
	fileType := models.Classify(clean)

	var (
		preview models.Preview
		err     error
	)
	switch fileType {
	case models.FileTypeJSON:
		preview, err = s.jsonPreview(ctx, key)
	case models.FileTypeMarkdown:
		preview, err = s.markdownPreview(ctx, key)
	case models.FileTypeMP4:
		preview, err = s.videoPreview(ctx, key)
	case models.FileTypeParquet:
		preview, err = s.parquetPreview(ctx, datasetID, clean)
	case models.FileTypeOther:
		preview = &models.UnsupportedPreview{Type: models.FileTypeOther, Error: PreviewNotSupported}
	default:
		panic(fmt.Sprintf("preview service: unhandled file type %q", fileType))
	}
	if err != nil {
		logger.Error("GetPreview: Failed to build preview",
			zap.String("datasetID", datasetID),
			zap.String("path", clean),
			zap.String("type", string(fileType)),
			zap.Error(err))
		return nil, fmt.Errorf("preview service: %v: %w", err, xerr.ErrPreviewFailed)
	}
	return preview, nil
}

func (s *previewService) jsonPreview(ctx context.Context, key string) (models.Preview, error) {
	data, truncated, err := storage.ReadLimited(ctx, s.store, key, s.cfg.JSONMaxBytes)
	if err != nil {
		return nil, err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(data), "", "  "); err != nil {
		// 解析失败时仍返回原文
		return &models.JSONPreview{
			Type:       models.FileTypeJSON,
			Content:    string(data),
			Truncated:  truncated,
			ParseError: true,
		}, nil
	}
	return &models.JSONPreview{
		Type:      models.FileTypeJSON,
		Content:   pretty.String(),
		Truncated: truncated,
	}, nil
}

func (s *previewService) markdownPreview(ctx context.Context, key string) (models.Preview, error) {
	data, truncated, err := storage.ReadLimited(ctx, s.store, key, s.cfg.MarkdownMaxBytes)
	if err != nil {
		return nil, err
	}
	return &models.MarkdownPreview{
		Type:      models.FileTypeMarkdown,
		Content:   string(data),
		Truncated: truncated,
	}, nil
}

func (s *previewService) videoPreview(ctx context.Context, key string) (models.Preview, error) {
	ttl := s.cfg.VideoURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	url, err := s.store.PresignGetObject(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return &models.VideoPreview{Type: models.FileTypeMP4, VideoURL: url}, nil
}

// parquetPreview 只返回上传时预计算的预览, 服务端不解析 parquet
func (s *previewService) parquetPreview(ctx context.Context, datasetID, path string) (models.Preview, error) {
	data, err := s.fileRepo.FindPreviewData(ctx, datasetID, path)
	if err != nil {
		return nil, err
	}
	if !models.HasJSONValue(data) {
		return &models.ParquetPreviewResult{Type: models.FileTypeParquet, Error: ParquetPreviewUnavailable}, nil
	}
	return &models.ParquetPreviewResult{Type: models.FileTypeParquet, ParquetPreview: json.RawMessage(data)}, nil
}
