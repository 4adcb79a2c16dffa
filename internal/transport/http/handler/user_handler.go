package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-admin-users/internal/authz"
	"go-admin-users/internal/core/cache"
	"go-admin-users/internal/service"
	mdw "go-admin-users/internal/transport/http/middleware"
	resp "go-admin-users/internal/transport/http/response"
)

// RoleCatalogKey 角色目录的缓存键；角色集合变动（如启动时补种基线）后要主动失效
const RoleCatalogKey = "users:roles:catalog"

type UserHandler struct {
	svc     *service.UserService
	listing *service.ListingService
	cache   *cache.Cache // 角色目录缓存（用户权限不缓存）
	log     *zap.Logger
}

func NewUserHandler(svc *service.UserService, listing *service.ListingService, c *cache.Cache, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, listing: listing, cache: c, log: log}
}

// Index GET /users — 服务端渲染列表页（每页 3 条）
func (h *UserHandler) Index(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	out, err := h.listing.Index(c.Request.Context(), actor, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.OK(out))
}

// Datatable POST /users/datatable — 服务端驱动表格
func (h *UserHandler) Datatable(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	var q service.TableQuery
	if err := c.ShouldBind(&q); err != nil {
		resp.JSON(c, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	out, err := h.listing.Table(c.Request.Context(), actor, q)
	if err != nil {
		h.fail(c, err)
		return
	}
	// 表格协议要求顶层就是 draw/recordsTotal/recordsFiltered/data
	c.JSON(200, out)
}

// New GET /users/new — 建表单数据（角色目录）
func (h *UserHandler) New(c *gin.Context) {
	names, err := h.roleCatalog(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.OK(gin.H{"roles": names}))
}

// Store POST /users
func (h *UserHandler) Store(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	var in service.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.JSON(c, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.svc.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.Flash("New user is added successfully.", gin.H{"id": u.ID}))
}

// Show GET /users/:id
func (h *UserHandler) Show(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.OK(gin.H{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"status": u.Status,
		"roles":  u.RoleNames(),
	}))
}

// EditData GET /users/:id/edit — 编辑表单数据；目标是 Super Admin 时套编辑规则
func (h *UserHandler) EditData(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if d := authz.CanEdit(actor, u); !d.Allowed() {
		resp.JSON(c, resp.Error(resp.CodeForbidden, d.Message))
		return
	}
	names, err := h.roleCatalog(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.OK(gin.H{
		"user":      gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "status": u.Status},
		"roles":     names,
		"userRoles": u.RoleNames(),
	}))
}

// Update PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var in service.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.JSON(c, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), actor, id, in); err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.Flash("User is updated successfully.", nil))
}

// Destroy DELETE /users/:id
func (h *UserHandler) Destroy(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	resp.JSON(c, resp.Flash("User is deleted successfully.", nil))
}

// ToggleStatus PATCH /users/:id/toggle-status — 软拒绝走提示语，不是错误状态
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	actor, _ := mdw.Actor(c)
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	res, err := h.svc.ToggleStatus(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if res.Notice != "" {
		resp.JSON(c, resp.Flash(res.Notice, gin.H{"updated": false, "active": res.Active}))
		return
	}
	resp.JSON(c, resp.Flash("User status updated successfully.", gin.H{"updated": true, "active": res.Active}))
}

// CheckStatus GET /session/status — 两个结果都是 HTTP 200
func (h *UserHandler) CheckStatus(c *gin.Context) {
	uid, ok := mdw.UID(c)
	if !ok {
		resp.JSON(c, resp.Error(resp.CodeUnauthorized, "missing token"))
		return
	}
	out := h.svc.CheckStatus(c.Request.Context(), uid)
	c.JSON(200, out)
}

func (h *UserHandler) roleCatalog(c *gin.Context) ([]string, error) {
	ctx := c.Request.Context()
	if h.cache == nil {
		return h.svc.RoleCatalog(ctx)
	}
	names, err := cache.GetOrLoadJSON[[]string](h.cache, ctx, RoleCatalogKey, 5*time.Minute,
		func(ctx context.Context) (*[]string, error) {
			ns, e := h.svc.RoleCatalog(ctx)
			if e != nil {
				return nil, e
			}
			return &ns, nil
		})
	if err != nil {
		return nil, err
	}
	if names == nil {
		return nil, nil
	}
	return *names, nil
}

func (h *UserHandler) paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		resp.JSON(c, resp.Error(resp.CodeNotFound, "user not found"))
		return 0, false
	}
	return uint(id), true
}

// fail 服务层错误统一映射
func (h *UserHandler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	var ae *service.AuthorizationError
	var nf *service.NotFoundError
	var pe *service.PersistenceError
	switch {
	case errors.As(err, &ve):
		c.JSON(resp.HTTPStatus(resp.CodeBadRequest), resp.New(resp.CodeBadRequest, "validation failed", gin.H{"fields": ve.Fields}))
	case errors.As(err, &ae):
		resp.JSON(c, resp.Error(resp.CodeForbidden, ae.Message))
	case errors.As(err, &nf):
		resp.JSON(c, resp.Error(resp.CodeNotFound, nf.Error()))
	case errors.As(err, &pe):
		h.log.Error("persistence failure", zap.String("op", pe.Op), zap.Error(pe.Err))
		resp.JSON(c, resp.Error(resp.CodeServerError, "Something went wrong. Please try again."))
	default:
		h.log.Error("unhandled failure", zap.Error(err))
		resp.JSON(c, resp.Error(resp.CodeServerError, ""))
	}
}
