package xerr

import "errors"

// 面向 API 调用方的错误信息保持英文, 与前端和 CLI 的提示一致
var (
	// 通用错误
	ErrInternalServer = errors.New("internal server error")

	// 客户端请求错误
	ErrInvalidParams     = errors.New("invalid request parameters")
	ErrValidationFailed  = errors.New("name, author, and description are required")
	ErrFilePathRequired  = errors.New("File path is required")
	ErrFilePathInvalid   = errors.New("invalid file path")
	ErrNoFilesToComplete = errors.New("Files array is required")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// 资源未找到错误
	ErrDatasetNotFound = errors.New("Dataset not found")
	ErrFileNotFound    = errors.New("File not found")

	// 基础设施错误
	ErrDatabaseError   = errors.New("database error")
	ErrStorageError    = errors.New("storage error")
	ErrMQError         = errors.New("message queue error")
	ErrSearchError     = errors.New("search error")
	ErrPreviewFailed   = errors.New("Failed to fetch file preview")
	ErrListFilesFailed = errors.New("Failed to fetch file tree")

	// 缓存未命中, 仅在 cache 包与装饰器之间流转
	ErrCacheMiss = errors.New("cache miss")
)
