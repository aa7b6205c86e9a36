package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// UploadService 接收 CLI 上传的对象并登记到文件目录
type UploadService interface {
	// UploadObject 将请求体写入 datasets/{id}/{path}
	UploadObject(ctx context.Context, datasetID, path string, body io.Reader, size int64, contentType string) (*models.UploadObjectResponse, error)
	// CompleteUpload 登记一批已上传的文件并更新数据集大小
	CompleteUpload(ctx context.Context, datasetID string, req *models.UploadCompleteRequest) (*models.UploadCompleteResponse, error)
}

type uploadService struct {
	datasets repositories.DatasetRepository
	files    repositories.FileRepository
	store    storage.ObjectStore
	now      func() time.Time
}

var _ UploadService = (*uploadService)(nil)

func NewUploadService(datasets repositories.DatasetRepository, files repositories.FileRepository, store storage.ObjectStore) UploadService {
	return &uploadService{
		datasets: datasets,
		files:    files,
		store:    store,
		now:      time.Now,
	}
}

func (s *uploadService) ensureDataset(ctx context.Context, id string) error {
	ok, err := s.datasets.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("upload service: %w", err)
	}
	if !ok {
		return fmt.Errorf("upload service: %w", xerr.ErrDatasetNotFound)
	}
	return nil
}

func (s *uploadService) UploadObject(ctx context.Context, datasetID, path string, body io.Reader, size int64, contentType string) (*models.UploadObjectResponse, error) {
	clean := utils.CleanRelPath(path)
	if clean == "" {
		return nil, fmt.Errorf("upload service: %q: %w", path, xerr.ErrFilePathInvalid)
	}
	if err := s.ensureDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	key := storage.DatasetObjectKey(datasetID, clean)
	res, err := s.store.PutObject(ctx, key, body, size, contentType)
	if err != nil {
		logger.Error("UploadObject: Failed to put object", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("upload service: %v: %w", err, xerr.ErrStorageError)
	}

	logger.Debug("UploadObject success", zap.String("key", key), zap.Int64("size", res.Size))
	return &models.UploadObjectResponse{
		Path: clean,
		URL:  s.store.ObjectURL(key),
		Size: res.Size,
	}, nil
}

func (s *uploadService) CompleteUpload(ctx context.Context, datasetID string, req *models.UploadCompleteRequest) (*models.UploadCompleteResponse, error) {
	if req.Files == nil {
		return nil, fmt.Errorf("upload service: %w", xerr.ErrNoFilesToComplete)
	}
	if err := s.ensureDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	records := make([]models.FileRecord, 0, len(req.Files))
	for _, f := range req.Files {
		record, err := s.fileRecord(datasetID, f)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := s.files.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("upload service: %w", err)
	}

	fields := map[string]any{
		"size":       utils.FormatFileSize(req.TotalSize),
		"updated_at": s.now().Format(time.DateOnly),
	}
	if err := s.datasets.Update(ctx, datasetID, fields, repositories.DatasetChildren{}); err != nil {
		return nil, fmt.Errorf("upload service: %w", err)
	}

	logger.Info("CompleteUpload success",
		zap.String("datasetID", datasetID),
		zap.Int("files", len(records)),
		zap.Int64("totalSize", req.TotalSize))
	return &models.UploadCompleteResponse{Uploaded: len(records)}, nil
}

func (s *uploadService) fileRecord(datasetID string, f models.UploadedFile) (models.FileRecord, error) {
	path := utils.CleanRelPath(f.Path)
	if path == "" {
		return models.FileRecord{}, fmt.Errorf("upload service: %q: %w", f.Path, xerr.ErrFilePathInvalid)
	}

	name := f.Name
	if name == "" {
		name = utils.BaseName(path)
	}
	url := f.URL
	if url == "" {
		url = s.store.ObjectURL(storage.DatasetObjectKey(datasetID, path))
	}

	record := models.FileRecord{
		DatasetID: datasetID,
		Path:      path,
		Name:      name,
		Type:      models.Classify(path),
		Size:      utils.FormatFileSize(f.Size),
		OssURL:    url,
	}
	if f.PreviewData != nil {
		data, err := json.Marshal(f.PreviewData)
		if err != nil {
			return models.FileRecord{}, fmt.Errorf("upload service: marshal preview of %s: %w", path, err)
		}
		record.PreviewData = datatypes.JSON(data)
	}
	return record, nil
}
