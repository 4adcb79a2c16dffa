package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"go-admin-users/internal/core/auth"
	resp "go-admin-users/internal/transport/http/response"
)

const KeyUID = "uid"

// AuthJWT 解析 Bearer token，写入 uid；角色/权限不进 token，由门卫按请求解析
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		c.Set(KeyUID, claims.UID)
		c.Next()
	}
}

// UID 从上下文取当前登录用户 id
func UID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(KeyUID)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint)
	return uid, ok
}
