package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorMapping 服务层哨兵错误到 HTTP 状态码与业务码的映射
type errorMapping struct {
	target error
	status int
	code   int
}

var clientErrors = []errorMapping{
	{xerr.ErrValidationFailed, http.StatusBadRequest, xerr.ValidationFailedCode},
	{xerr.ErrInvalidParams, http.StatusBadRequest, xerr.InvalidParamsCode},
	{xerr.ErrNoFilesToComplete, http.StatusBadRequest, xerr.InvalidParamsCode},
	{xerr.ErrFilePathRequired, http.StatusBadRequest, xerr.FilePathRequiredCode},
	{xerr.ErrFilePathInvalid, http.StatusBadRequest, xerr.FilePathInvalidCode},
	{xerr.ErrInvalidCredentials, http.StatusUnauthorized, xerr.InvalidCredentialsCode},
	{xerr.ErrTokenInvalid, http.StatusUnauthorized, xerr.TokenInvalidCode},
	{xerr.ErrUnauthorized, http.StatusUnauthorized, xerr.UnauthorizedCode},
	{xerr.ErrDatasetNotFound, http.StatusNotFound, xerr.DatasetNotFoundCode},
	{xerr.ErrFileNotFound, http.StatusNotFound, xerr.FileNotFoundCode},
}

// lookupClientError 返回调用方可见的错误, 未命中时视为内部错误
func lookupClientError(err error) (errorMapping, bool) {
	for _, m := range clientErrors {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// respondError 按 {code, message, data} 格式返回错误, 内部错误只返回 fallback 并记录日志
func respondError(c *gin.Context, op string, err error, fallback string) {
	if m, ok := lookupClientError(err); ok {
		xerr.Error(c, m.status, m.code, m.target.Error())
		return
	}
	logger.Error(op+": "+fallback, zap.String("requestID", utils.GetRequestID(c)), zap.Error(err))
	xerr.Error(c, http.StatusInternalServerError, xerr.CodeOf(err, xerr.InternalServerErrorCode), fallback)
}

// respondPlainError 文件树与预览接口的错误格式 {"error": "..."}
func respondPlainError(c *gin.Context, op string, err error, fallback string) {
	if m, ok := lookupClientError(err); ok {
		xerr.Plain(c, m.status, m.target.Error())
		return
	}
	logger.Error(op+": "+fallback, zap.String("requestID", utils.GetRequestID(c)), zap.Error(err))
	xerr.Plain(c, http.StatusInternalServerError, fallback)
}

// queryInt 解析非负整数参数, 缺失或格式错误时使用默认值
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
