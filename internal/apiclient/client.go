// Package apiclient 是 datahub REST API 的类型化客户端, 供 CLI 使用
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
)

const defaultTimeout = 5 * time.Minute

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound 判断错误是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// Preview 各类预览的并集, Type 决定哪些字段有值
type Preview struct {
	Type           models.FileType `json:"type"`
	Content        string          `json:"content,omitempty"`
	Truncated      bool            `json:"truncated,omitempty"`
	ParseError     bool            `json:"parseError,omitempty"`
	VideoURL       string          `json:"videoUrl,omitempty"`
	ParquetPreview json.RawMessage `json:"parquetPreview,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken 登录后更新 token
func (c *Client) SetToken(token string) { c.token = token }

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	size        int64
	contentType string
	// raw 为 true 时响应体直接是业务结构, 错误为 {"error": "..."}
	raw bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if r.size > 0 {
		req.ContentLength = r.size
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if r.raw {
		if resp.StatusCode >= 300 {
			var body struct {
				Error string `json:"error"`
			}
			_ = json.Unmarshal(data, &body)
			if body.Error == "" {
				body.Error = http.StatusText(resp.StatusCode)
			}
			return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := jsonBody(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", body: body, contentType: "application/json"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CheckAuth(ctx context.Context) (*AuthStatus, error) {
	var s AuthStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/check"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListDatasets(ctx context.Context, query string, limit, offset int) (*models.DatasetList, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var list models.DatasetList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/datasets", query: q}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetDataset(ctx context.Context, id string) (*models.DatasetDetail, error) {
	var d models.DatasetDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/datasets/" + url.PathEscape(id)}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDataset(ctx context.Context, req *models.CreateDatasetRequest) (*models.Dataset, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var d models.Dataset
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/datasets", body: body, contentType: "application/json"}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/datasets/" + url.PathEscape(id)}, nil)
}

// ListFolder 取一页目录列表, cursor 为空时从头开始
func (c *Client) ListFolder(ctx context.Context, datasetID, path, cursor string, limit int) (*models.FolderListing, error) {
	q := url.Values{}
	if path != "" {
		q.Set("path", path)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var listing models.FolderListing
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/datasets/" + url.PathEscape(datasetID) + "/files", query: q, raw: true}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *Client) GetPreview(ctx context.Context, datasetID, path string) (*Preview, error) {
	q := url.Values{"path": {path}}
	var p Preview
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/datasets/" + url.PathEscape(datasetID) + "/files/preview", query: q, raw: true}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadObject 把 body 写入 datasets/{id}/{path}
func (c *Client) UploadObject(ctx context.Context, datasetID, path string, body io.Reader, size int64) (*models.UploadObjectResponse, error) {
	q := url.Values{"path": {path}}
	if size == 0 {
		body = http.NoBody
	}
	var out models.UploadObjectResponse
	err := c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/api/datasets/" + url.PathEscape(datasetID) + "/objects",
		query:       q,
		body:        body,
		size:        size,
		contentType: "application/octet-stream",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteUpload(ctx context.Context, datasetID string, req *models.UploadCompleteRequest) (*models.UploadCompleteResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var out models.UploadCompleteResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/datasets/" + url.PathEscape(datasetID) + "/upload-complete",
		body:        body,
		contentType: "application/json",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
