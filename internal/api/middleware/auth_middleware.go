package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/auth"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
)

// 上下文键。中间件写入，handler 通过 api 包的辅助函数读取。
const (
	IdentityKey = "identity"
	UserKey     = "currentUser"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "message": "unauthorized"})
}

// AuthMiddleware 校验访问令牌，并从数据库加载用户后把身份注入上下文。
// 令牌只携带用户 ID；角色每次查库获得，令牌对应的用户不存在时视为未认证。
func AuthMiddleware(authService *auth.AuthService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := parts[1]
		if strings.TrimSpace(rawToken) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			abortUnauthorized(c)
			return
		}

		var user database.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": http.StatusInternalServerError, "message": "internal error"})
				return
			}
			abortUnauthorized(c)
			return
		}

		role, ok := resume.ParseRole(user.Role)
		if !ok {
			abortUnauthorized(c)
			return
		}

		c.Set(IdentityKey, resume.Identity{UserID: user.ID, Role: role})
		c.Set(UserKey, user)
		c.Next()
	}
}

// RequireRoles 只放行角色在白名单内的请求，其余返回 403。
// 角色门禁在进入业务逻辑之前完成，所有权校验则由查询过滤条件承担。
func RequireRoles(roles ...resume.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(IdentityKey)
		if !exists {
			abortUnauthorized(c)
			return
		}
		ident, ok := value.(resume.Identity)
		if !ok {
			abortUnauthorized(c)
			return
		}

		for _, role := range roles {
			if ident.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": http.StatusForbidden, "message": "forbidden"})
	}
}
