package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
)

//go:generate mockgen -destination=../../../mocks/mock_object_store.go -package=mocks github.com/3Eeeecho/go-datahub/internal/pkg/storage ObjectStore

// MaxDeleteBatch 单次批量删除的最大对象数, 与 S3 DeleteObjects 上限一致
const MaxDeleteBatch = 1000

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 定义数据集文件的对象存储操作, 每个实例绑定一个存储桶
type ObjectStore interface {
	// PutObject 上传对象
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (PutObjectResult, error)
	// GetObject 读取对象, maxBytes > 0 时只请求前 maxBytes 字节
	GetObject(ctx context.Context, key string, maxBytes int64) (io.ReadCloser, error)
	// ListObjects 列出前缀下的全部对象
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// RemoveObjects 批量删除, 调用方保证单批不超过 MaxDeleteBatch
	RemoveObjects(ctx context.Context, keys []string) error
	// PresignGetObject 生成带有效期的下载地址
	PresignGetObject(ctx context.Context, key string, expiry time.Duration) (string, error)
	// ObjectURL 对象的直接访问地址
	ObjectURL(key string) string
	// EnsureBucket 存储桶不存在时创建
	EnsureBucket(ctx context.Context) error
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// NewObjectStore 根据 storage.type 创建对应的存储实现
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	bucket := cfg.Storage.Bucket
	if bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStore(&cfg.MinIO, bucket)
	case "aliyun_oss":
		return NewAliyunOSSStore(&cfg.AliyunOSS, bucket)
	case "s3":
		return NewS3Store(ctx, &cfg.S3, bucket)
	default:
		return nil, fmt.Errorf("storage: invalid type %q", cfg.Storage.Type)
	}
}

// DatasetPrefix 数据集对象前缀 datasets/{id}/
func DatasetPrefix(datasetID string) string {
	return "datasets/" + datasetID + "/"
}

// DatasetObjectKey 数据集内文件的对象键 datasets/{id}/{path}
func DatasetObjectKey(datasetID, path string) string {
	return DatasetPrefix(datasetID) + strings.TrimPrefix(path, "/")
}

// PurgePrefix 删除前缀下的全部对象, 按 MaxDeleteBatch 分批, 返回删除数量
func PurgePrefix(ctx context.Context, store ObjectStore, prefix string) (int, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list objects under %s: %w", prefix, err)
	}

	removed := 0
	for start := 0; start < len(objects); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(objects))
		keys := make([]string, 0, end-start)
		for _, obj := range objects[start:end] {
			keys = append(keys, obj.Key)
		}
		if err := store.RemoveObjects(ctx, keys); err != nil {
			return removed, fmt.Errorf("remove objects under %s: %w", prefix, err)
		}
		removed += len(keys)
	}
	return removed, nil
}

// ReadLimited 读取最多 limit 字节, 返回内容及是否超出 limit
// 实际多读 1 字节用于判断是否截断
func ReadLimited(ctx context.Context, store ObjectStore, key string, limit int64) ([]byte, bool, error) {
	rc, err := store.GetObject(ctx, key, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
