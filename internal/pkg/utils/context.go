package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUsernameKey  = "username"
	ctxRequestIDKey = "requestID"
)

// SetAdmin 鉴权中间件写入当前管理员
func SetAdmin(c *gin.Context, username string) {
	c.Set(ctxUsernameKey, username)
}

// GetAdminFromContext 读取鉴权中间件写入的管理员用户名
func GetAdminFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUsernameKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok && username != ""
}

func SetRequestID(c *gin.Context, id string) {
	c.Set(ctxRequestIDKey, id)
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestIDKey)
}

// SessionCookie 浏览器登录后保存 token 的 cookie 名
const SessionCookie = "session"

// TokenFromRequest 优先读取 Authorization: Bearer, 其次读取会话 cookie
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}
