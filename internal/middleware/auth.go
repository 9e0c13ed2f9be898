package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-storefront/pkg/apperror"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context 中的键
const (
	KeyUserID   = "userId"
	KeyUsername = "username"
	KeyRole     = "role"
	KeyClaims   = "claims"
)

// Authenticator 校验 Token, 已注销的 Token 也视为无效
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

// bearerToken 取 "Bearer <token>" 中的 token, 没有 Authorization 头时 ok 为 true 且 token 为空
func bearerToken(c *gin.Context) (token string, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", true
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Auth 解析 Token 并把用户信息存入 Context
// required 为 false 时, 没有 Token 的请求以游客身份继续
func Auth(auth Authenticator, log *zap.Logger, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}
		if token == "" {
			if required {
				response.Error(c, http.StatusUnauthorized, "Authorization header required")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, log, err)
			c.Abort()
			return
		}

		c.Set(KeyUserID, claims.UserId)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

// RequireLogin 必须已登录, 放在 Auth(..., false) 之后
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			response.Error(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole 角色必须是 roles 之一
func RequireRole(log *zap.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Fail(c, log, apperror.Forbidden("insufficient permissions"))
		c.Abort()
	}
}

// UserID 当前登录用户, 游客返回 false
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func Claims(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
