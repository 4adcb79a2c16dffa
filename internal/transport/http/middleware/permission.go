package middleware

import (
	"github.com/gin-gonic/gin"

	"go-admin-users/internal/authz"
	resp "go-admin-users/internal/transport/http/response"
)

// RequireAny 路由级权限闸门：持有任一权限即放行（对应 permission:a|b|c）
func RequireAny(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := Actor(c)
		if !ok {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		for _, p := range perms {
			if a.Can(p) {
				c.Next()
				return
			}
		}
		resp.Abort(c, resp.Error(resp.CodeForbidden, authz.ForbiddenMessage))
	}
}
