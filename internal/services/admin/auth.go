package admin

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"go.uber.org/zap"
)

// Session 登录成功后签发的会话
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService 单管理员账号的登录与 token 校验
type AuthService interface {
	Login(username, password string) (*Session, error)
	// Verify 校验 token 并返回管理员用户名
	Verify(token string) (string, error)
}

type authService struct {
	admin config.AdminConfig
	jwt   config.JWTConfig
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(admin config.AdminConfig, jwt config.JWTConfig) AuthService {
	return &authService{admin: admin, jwt: jwt}
}

func (s *authService) Login(username, password string) (*Session, error) {
	// 未配置密码哈希时拒绝所有登录
	if s.admin.PasswordHash == "" {
		logger.Warn("Login: admin.password_hash is not configured")
		return nil, xerr.ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1
	// 用户名错误时仍然校验密码, 保持耗时一致
	passOK := utils.CheckPasswordHash(password, s.admin.PasswordHash)
	if !userOK || !passOK {
		logger.Warn("Login: Invalid credentials", zap.String("username", username))
		return nil, xerr.ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateToken(s.admin.Username, s.jwt.SecretKey, s.jwt.Issuer, s.jwt.ExpiresIn)
	if err != nil {
		logger.Error("Login: Failed to generate token", zap.Error(err))
		return nil, fmt.Errorf("auth service: %v: %w", err, xerr.ErrInternalServer)
	}

	logger.Info("Admin logged in", zap.String("username", username))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Verify(token string) (string, error) {
	if token == "" {
		return "", xerr.ErrUnauthorized
	}
	claims, err := utils.ParseToken(token, s.jwt.SecretKey)
	if err != nil {
		return "", fmt.Errorf("auth service: %v: %w", err, xerr.ErrTokenInvalid)
	}
	if claims.Subject != s.admin.Username {
		return "", fmt.Errorf("auth service: unknown subject %q: %w", claims.Subject, xerr.ErrTokenInvalid)
	}
	return claims.Subject, nil
}
