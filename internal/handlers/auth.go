package handlers

import (
	"net/http"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/services/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoginRequest 管理员登录请求体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthStatus 登录状态
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type AuthHandler struct {
	authService admin.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService admin.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// Login 管理员登录
// @Summary 管理员登录
// @Description 成功后返回 token, 同时写入 HttpOnly 会话 cookie
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录凭据"
// @Success 200 {object} xerr.Response{data=admin.Session} "登录成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		logger.Warn("Login: Failed attempt", zap.String("username", req.Username), zap.String("clientIP", c.ClientIP()))
		respondError(c, "Login", err, "Login failed")
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, session.Token, maxAge, "/", "", c.Request.TLS != nil, true)
	xerr.Success(c, http.StatusOK, "Login successful", session)
}

// Logout 清除会话 cookie
// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Success 200 {object} xerr.Response "已退出"
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	xerr.Success(c, http.StatusOK, "Logged out", nil)
}

// Check 返回当前请求是否携带有效会话
// @Summary 登录状态
// @Tags 认证
// @Produce json
// @Success 200 {object} xerr.Response{data=AuthStatus} "登录状态"
// @Router /api/auth/check [get]
func (h *AuthHandler) Check(c *gin.Context) {
	status := AuthStatus{}
	if username, err := h.authService.Verify(utils.TokenFromRequest(c)); err == nil {
		status = AuthStatus{Authenticated: true, Username: username}
	}
	xerr.Success(c, http.StatusOK, "ok", status)
}
