package router

import (
	"github.com/gin-gonic/gin"

	"go-admin-users/internal/domain"
	"go-admin-users/internal/transport/http/handler"
	mdw "go-admin-users/internal/transport/http/middleware"
)

// userModule 用户管理路由。权限闸门对齐原后台：
// 列表/详情任一权限，create/edit/delete 各自权限，状态切换仅要求登录
type userModule struct {
	h *handler.UserHandler
}

func (m userModule) Priority() int { return 10 }

func (m userModule) Mount(g *gin.RouterGroup) {
	anyPerm := mdw.RequireAny(domain.PermCreateUser, domain.PermEditUser, domain.PermDeleteUser)

	users := g.Group("/users")
	users.GET("", anyPerm, m.h.Index)
	users.POST("/datatable", anyPerm, m.h.Datatable)
	users.GET("/new", mdw.RequireAny(domain.PermCreateUser), m.h.New)
	users.POST("", mdw.RequireAny(domain.PermCreateUser), m.h.Store)
	users.GET("/:id", anyPerm, m.h.Show)
	users.GET("/:id/edit", mdw.RequireAny(domain.PermEditUser), m.h.EditData)
	users.PUT("/:id", mdw.RequireAny(domain.PermEditUser), m.h.Update)
	users.DELETE("/:id", mdw.RequireAny(domain.PermDeleteUser), m.h.Destroy)
	users.PATCH("/:id/toggle-status", m.h.ToggleStatus)
}
