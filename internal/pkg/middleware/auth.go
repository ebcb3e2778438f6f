package middleware

import (
	"context"
	"net/http"
	"strings"

	"socialhub/internal/domain/user/model"
	"socialhub/pkg/apperror"
	"socialhub/pkg/response"
	"socialhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// TokenVerifier 第三方身份令牌校验，返回本系统的 userID
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// RoleResolver 从存储中读取用户当前角色
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (string, error)
}

// AuthMiddleware 认证中间件：先按本系统 JWT 校验，失败时依次尝试外部校验器
func AuthMiddleware(verifiers ...TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}
		tokenString := parts[1]

		if claims, err := utils.ParseToken(tokenString); err == nil && claims.UserID != "" {
			c.Set(ctxUserID, claims.UserID)
			c.Next()
			return
		}

		for _, v := range verifiers {
			if userID, err := v.VerifyToken(c.Request.Context(), tokenString); err == nil && userID != "" {
				c.Set(ctxUserID, userID)
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
		c.Abort()
	}
}

// CurrentUserID 返回已认证的用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// resolveRole 每个请求只读取一次角色
func resolveRole(c *gin.Context, resolver RoleResolver) (string, bool) {
	if role, ok := c.Get(ctxRole); ok {
		return role.(string), true
	}

	role, err := resolver.ResolveRole(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Account not found")
		} else {
			response.FromError(c, err)
		}
		c.Abort()
		return "", false
	}
	c.Set(ctxRole, role)
	return role, true
}

// RequireRole 角色校验，角色每次从存储读取，角色变更立即生效
func RequireRole(resolver RoleResolver, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := resolveRole(c, resolver)
		if !ok {
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
		c.Abort()
	}
}

// RequireActive 拒绝已封禁用户的写操作
func RequireActive(resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := resolveRole(c, resolver)
		if !ok {
			return
		}
		if role == model.RoleSuspended {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Account is suspended")
			c.Abort()
			return
		}
		c.Next()
	}
}
