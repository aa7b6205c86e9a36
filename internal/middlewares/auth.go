package middlewares

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/services/admin"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware 校验管理员 token, 支持 Authorization: Bearer 与会话 cookie
func AuthMiddleware(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.TokenFromRequest(c)
		if token == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, xerr.ErrUnauthorized.Error())
			return
		}

		username, err := authService.Verify(token)
		if err != nil {
			code := xerr.UnauthorizedCode
			if errors.Is(err, xerr.ErrTokenInvalid) {
				code = xerr.TokenInvalidCode
			}
			xerr.AbortWithError(c, http.StatusUnauthorized, code, xerr.ErrUnauthorized.Error())
			return
		}

		utils.SetAdmin(c, username)
		c.Next()
	}
}
