package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-admin-users/internal/core/auth"
	"go-admin-users/internal/domain"
	"go-admin-users/internal/transport/http/handler"
	mdw "go-admin-users/internal/transport/http/middleware"
)

// NewAdminEngine 管理面板引擎。
// 中间件顺序：基础设施 → JWT → 状态门卫 → 路由级权限闸门
func NewAdminEngine(
	l *zap.Logger,
	h *handler.UserHandler,
	jwter *auth.JWTer,
	users domain.UserRepository,
	flags mdw.SessionFlags,
) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		cors.Default(),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("")

	// 已登录（token 有效即可；状态轮询必须能在被停用后拿到 200 应答）
	authed := r.Group("")
	authed.Use(mdw.AuthJWT(jwter))
	authed.GET("/session/status", h.CheckStatus)

	// 状态轮询之外的已登录接口一律过门卫，/me 也不例外
	gated := authed.Group("")
	gated.Use(mdw.StatusGate(users, flags, l))

	mountAuthActions(public, gated, users, jwter)
	MountAll(gated, userModule{h: h})

	return r
}
