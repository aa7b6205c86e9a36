package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// DatasetIndex 数据集全文检索
type DatasetIndex interface {
	// Index 写入或覆盖一个数据集文档
	Index(ctx context.Context, dataset *models.Dataset) error
	// Delete 删除文档, 文档不存在不算错误
	Delete(ctx context.Context, id string) error
	// Search 返回按相关度排序的数据集 ID 与命中总数
	Search(ctx context.Context, query string, limit, offset int) ([]string, int64, error)
}

// datasetDocument 索引中保存的字段
type datasetDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Task        string   `json:"task"`
	Language    string   `json:"language"`
	UpdatedAt   string   `json:"updated_at"`
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text"},
      "author":      {"type": "text"},
      "description": {"type": "text"},
      "tags":        {"type": "keyword"},
      "task":        {"type": "keyword"},
      "language":    {"type": "keyword"},
      "updated_at":  {"type": "keyword"}
    }
  }
}`

type ESIndex struct {
	client *elasticsearch.Client
	index  string
}

var _ DatasetIndex = (*ESIndex)(nil)

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{client: client, index: index}
}

// EnsureIndex 索引不存在时按 mapping 创建
func (e *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	logger.Info("Elasticsearch index created", zap.String("index", e.index))
	return nil
}

func (e *ESIndex) Index(ctx context.Context, dataset *models.Dataset) error {
	doc := datasetDocument{
		ID:          dataset.ID,
		Name:        dataset.Name,
		Author:      dataset.Author,
		Description: dataset.Description,
		Tags:        dataset.Tags,
		Task:        dataset.Task,
		Language:    dataset.Language,
		UpdatedAt:   dataset.UpdatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal dataset document: %w", err)
	}

	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(dataset.ID),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index dataset %s: %w", dataset.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index dataset", res)
	}
	return nil
}

func (e *ESIndex) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.index, id,
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete dataset %s from index: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete dataset", res)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ESIndex) Search(ctx context.Context, query string, limit, offset int) ([]string, int64, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^3", "tags^2", "description", "author"},
			},
		},
		"_source": false,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithFrom(offset),
		e.client.Search.WithSize(limit),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search datasets: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, responseError("search datasets", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: elasticsearch returned %s: %s", op, strconv.Itoa(res.StatusCode), raw)
}
