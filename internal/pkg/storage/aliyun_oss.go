package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

type AliyunOSSStore struct {
	client *oss.Client
	bucket *oss.Bucket
	cfg    *config.AliyunOSSConfig
}

var _ ObjectStore = (*AliyunOSSStore)(nil)

func NewAliyunOSSStore(cfg *config.AliyunOSSConfig, bucketName string) (*AliyunOSSStore, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		logger.Error("初始化阿里云OSS客户端失败", zap.Error(err))
		return nil, fmt.Errorf("无法初始化阿里云OSS客户端: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("获取OSS存储桶失败: %w", err)
	}
	logger.Info("Aliyun OSS client initialized", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", bucketName))
	return &AliyunOSSStore{client: client, bucket: bucket, cfg: cfg}, nil
}

// isNoSuchKey 判断 OSS 返回的是否为对象不存在
func isNoSuchKey(err error) bool {
	var svcErr oss.ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == "NoSuchKey"
}

func (s *AliyunOSSStore) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (PutObjectResult, error) {
	if err := s.bucket.PutObject(key, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return PutObjectResult{}, fmt.Errorf("阿里云OSS上传文件失败: %w", err)
	}
	return PutObjectResult{Bucket: s.bucket.BucketName, Key: key, Size: size}, nil
}

func (s *AliyunOSSStore) GetObject(ctx context.Context, key string, maxBytes int64) (io.ReadCloser, error) {
	opts := []oss.Option{oss.WithContext(ctx)}
	if maxBytes > 0 {
		opts = append(opts, oss.Range(0, maxBytes-1))
	}
	body, err := s.bucket.GetObject(key, opts...)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("阿里云OSS获取文件失败: %w", err)
	}
	return body, nil
}

func (s *AliyunOSSStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	token := ""
	for {
		res, err := s.bucket.ListObjectsV2(oss.Prefix(prefix), oss.ContinuationToken(token), oss.MaxKeys(MaxDeleteBatch), oss.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("阿里云OSS列举对象失败: %w", err)
		}
		for _, obj := range res.Objects {
			out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
		}
		if !res.IsTruncated {
			return out, nil
		}
		token = res.NextContinuationToken
	}
}

func (s *AliyunOSSStore) RemoveObjects(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.bucket.DeleteObjects(keys, oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("阿里云OSS批量删除失败: %w", err)
	}
	return nil
}

func (s *AliyunOSSStore) PresignGetObject(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := s.bucket.SignURL(key, oss.HTTPGet, int64(expiry.Seconds()))
	if err != nil {
		return "", fmt.Errorf("阿里云OSS生成签名URL失败: %w", err)
	}
	return signed, nil
}

func (s *AliyunOSSStore) ObjectURL(key string) string {
	scheme := "http://"
	if s.cfg.UseSSL {
		scheme = "https://"
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(s.cfg.Endpoint, "http://"), "https://")
	return fmt.Sprintf("%s%s.%s/%s", scheme, s.bucket.BucketName, endpoint, key)
}

func (s *AliyunOSSStore) EnsureBucket(ctx context.Context) error {
	name := s.bucket.BucketName
	exists, err := s.client.IsBucketExist(name)
	if err != nil {
		return fmt.Errorf("检查阿里云OSS存储桶存在性失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.CreateBucket(name); err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && (svcErr.Code == "BucketAlreadyExists" || svcErr.Code == "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("创建阿里云OSS存储桶失败: %w", err)
	}
	logger.Info("Aliyun OSS bucket created", zap.String("bucket", name))
	return nil
}
