package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultWorkers = 4

// ErrAllFailed 所有文件都上传失败时返回, 此时不会调用 upload-complete
var ErrAllFailed = errors.New("every file failed to upload")

// API 上传需要的服务端接口, apiclient.Client 实现了该接口
type API interface {
	UploadObject(ctx context.Context, datasetID, path string, body io.Reader, size int64) (*models.UploadObjectResponse, error)
	CompleteUpload(ctx context.Context, datasetID string, req *models.UploadCompleteRequest) (*models.UploadCompleteResponse, error)
}

type Options struct {
	Workers int
	// Previewer 为 nil 时不生成 parquet 预览
	Previewer PreviewExtractor
	// Progress 每个文件结束时回调, 可能被多个 goroutine 并发调用
	Progress func(f LocalFile, err error)
}

type Failure struct {
	File LocalFile
	Err  error
}

type Result struct {
	Uploaded  []models.UploadedFile
	Failed    []Failure
	TotalSize int64
	// Registered 服务端登记的文件数
	Registered int
}

// Upload 用有界 worker 池上传文件, 失败的文件记录后跳过, 最后一次性调用 upload-complete
func Upload(ctx context.Context, api API, datasetID string, files []LocalFile, opts Options) (*Result, error) {
	res := &Result{}
	if len(files) == 0 {
		return res, nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	uploaded := make([]*models.UploadedFile, len(files))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := uploadOne(ctx, api, datasetID, f, opts.Previewer)
			if opts.Progress != nil {
				opts.Progress(f, err)
			}
			if err != nil {
				logger.Warn("Upload: File failed", zap.String("path", f.RelPath), zap.Error(err))
				mu.Lock()
				res.Failed = append(res.Failed, Failure{File: f, Err: err})
				mu.Unlock()
				return nil
			}
			uploaded[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	// 保持扫描顺序
	for _, u := range uploaded {
		if u != nil {
			res.Uploaded = append(res.Uploaded, *u)
			res.TotalSize += u.Size
		}
	}
	if len(res.Uploaded) == 0 {
		return res, ErrAllFailed
	}

	resp, err := api.CompleteUpload(ctx, datasetID, &models.UploadCompleteRequest{
		Files:     res.Uploaded,
		TotalSize: res.TotalSize,
	})
	if err != nil {
		return res, fmt.Errorf("complete upload: %w", err)
	}
	res.Registered = resp.Uploaded
	return res, nil
}

func uploadOne(ctx context.Context, api API, datasetID string, f LocalFile, previewer PreviewExtractor) (*models.UploadedFile, error) {
	fh, err := os.Open(f.AbsPath)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	resp, err := api.UploadObject(ctx, datasetID, f.RelPath, fh, f.Size)
	if err != nil {
		return nil, err
	}

	out := &models.UploadedFile{
		Name: path.Base(f.RelPath),
		Path: f.RelPath,
		Size: f.Size,
		URL:  resp.URL,
	}
	if previewer != nil && models.Classify(f.RelPath) == models.FileTypeParquet {
		// 预览失败不影响上传
		preview, err := previewer.Extract(ctx, f.AbsPath)
		if err != nil {
			logger.Warn("Upload: Failed to extract parquet preview", zap.String("path", f.RelPath), zap.Error(err))
		} else {
			out.PreviewData = preview
		}
	}
	return out, nil
}
