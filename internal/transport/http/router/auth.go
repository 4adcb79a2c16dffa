package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"go-admin-users/internal/core/auth"
	"go-admin-users/internal/domain"
	httpez "go-admin-users/internal/transport/http/ez"
	mdw "go-admin-users/internal/transport/http/middleware"
	"go-admin-users/pkg/utils"
)

// mountAuthActions 登录 + /me。
// 后台没有自助注册：查无此人一律 invalid credentials
func mountAuthActions(public, gated *gin.RouterGroup, users domain.UserRepository, jwter *auth.JWTer) {
	// 登录口每 IP 限速，挡口令爆破
	login := public.Group("")
	login.Use(mdw.RateLimitPerIP(rate.Limit(1), 10))
	ezPublic := httpez.New(login)

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string `json:"token"`
		User  gin.H  `json:"user"`
	}
	httpez.RegisterAction[loginIn, loginOut](ezPublic, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := users.FindByEmail(c.Request.Context(), in.Email)
			if err != nil {
				return loginOut{}, httpez.Internal("login failed", err)
			}
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return loginOut{}, httpez.Unauthorized("invalid credentials")
			}
			if !u.Status {
				return loginOut{}, httpez.Unauthorized(mdw.DeactivatedMessage)
			}
			tok, err := jwter.Issue(u.ID)
			if err != nil || tok == "" {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{
				Token: tok,
				User:  gin.H{"id": u.ID, "email": u.Email, "name": u.Name, "roles": u.RoleNames()},
			}, nil
		},
	})

	ezGated := httpez.New(gated)

	type meOut struct {
		ID    uint     `json:"id"`
		Email string   `json:"email"`
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	}
	httpez.RegisterAction[struct{}, meOut](ezGated, httpez.Action[struct{}, meOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (meOut, error) {
			uid, ok := mdw.UID(c)
			if !ok {
				return meOut{}, httpez.Unauthorized("unauthorized")
			}
			u, err := users.FindByID(c.Request.Context(), uid)
			if err != nil {
				return meOut{}, httpez.Internal("db error", err)
			}
			if u == nil {
				return meOut{}, httpez.NotFound("user not found")
			}
			return meOut{ID: u.ID, Email: u.Email, Name: u.Name, Roles: u.RoleNames()}, nil
		},
	})
}
