package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-admin-users/internal/authz"
	"go-admin-users/internal/domain"
	resp "go-admin-users/internal/transport/http/response"
)

const KeyActor = "actor"

const DeactivatedMessage = "Your account has been deactivated."

// SessionFlags 失效标记。只是信号，库里的状态才作数
type SessionFlags interface {
	Killed(ctx context.Context, uid uint) bool
	Kill(ctx context.Context, uid uint) error
	Revive(ctx context.Context, uid uint) error
}

// StatusGate 每个请求都校验当前用户状态，并解析出 Actor。
// 必须排在所有权限检查之前：被停用的用户不该走到任何策略判断。
// 角色/权限每次从库读（决策时点），避免并发改角色后的脏授权。
// 状态也以库为准：失效标记只在查库失败时兜底，防止残留标记把已激活的用户挡在门外。
func StatusGate(users domain.UserRepository, flags SessionFlags, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UID(c)
		if !ok {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}

		ctx := c.Request.Context()
		u, err := users.FindByID(ctx, uid)
		if err != nil {
			log.Error("status gate: load user", zap.Uint("uid", uid), zap.Error(err))
			// 库不可用时标记是唯一的线索：已标记的会话照常拒掉
			if flags != nil && flags.Killed(ctx, uid) {
				logout(c)
				return
			}
			resp.Abort(c, resp.Error(resp.CodeServerError, ""))
			return
		}
		if u == nil {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid session"))
			return
		}
		if !u.Status {
			if flags != nil {
				if err := flags.Kill(ctx, uid); err != nil {
					log.Warn("status gate: kill flag", zap.Uint("uid", uid), zap.Error(err))
				}
			}
			logout(c)
			return
		}
		// 库说激活：重新激活时 Revive 若失败会留下残标，这里顺手清掉
		if flags != nil && flags.Killed(ctx, uid) {
			if err := flags.Revive(ctx, uid); err != nil {
				log.Warn("status gate: clear stale flag", zap.Uint("uid", uid), zap.Error(err))
			}
		}

		c.Set(KeyActor, authz.NewActor(u))
		c.Next()
	}
}

// logout 页面跳登录页，轮询端按 redirect 字段处理
func logout(c *gin.Context) {
	resp.Abort(c, resp.New(resp.CodeUnauthorized, DeactivatedMessage, gin.H{"redirect": "/login"}))
}

// Actor 从上下文取已解析的 Actor（必须在 StatusGate 之后）
func Actor(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(KeyActor)
	if !ok {
		return authz.Actor{}, false
	}
	a, ok := v.(authz.Actor)
	return a, ok
}
