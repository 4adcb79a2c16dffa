package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"go-admin-users/internal/authz"
	"go-admin-users/internal/domain"
	"go-admin-users/pkg/utils"
)

// SessionKiller 停用用户时标记会话失效（状态门卫消费）
type SessionKiller interface {
	Kill(ctx context.Context, uid uint) error
	Revive(ctx context.Context, uid uint) error
}

type UserService struct {
	users    domain.UserRepository
	roles    domain.RoleRepository
	sessions SessionKiller
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, roles domain.RoleRepository, sessions SessionKiller, log *zap.Logger) *UserService {
	return &UserService{users: users, roles: roles, sessions: sessions, log: log}
}

type CreateInput struct {
	Name     string   `json:"name" binding:"required,max=64"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles" binding:"required,min=1"`
}

type UpdateInput struct {
	Name     string   `json:"name" binding:"required,max=64"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"omitempty,min=8"` // 空 = 保留旧密码
	Roles    []string `json:"roles" binding:"required,min=1"`
}

func (s *UserService) Create(ctx context.Context, actor authz.Actor, in CreateInput) (*domain.User, error) {
	if !authz.CanCreate(actor) {
		return nil, errForbidden()
	}
	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: utils.HashPassword(in.Password),
		Status:       true, // 新建默认激活
	}
	if err := s.users.Create(ctx, u, roles); err != nil {
		if isDupKey(err) {
			return nil, invalidField("email", "email already taken")
		}
		return nil, &PersistenceError{Op: "create user", Err: err}
	}
	u.Roles = roles
	s.log.Info("user created", zap.Uint("id", u.ID), zap.Uint("actor", actor.ID))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, actor authz.Actor, id uint, in UpdateInput) (*domain.User, error) {
	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanEdit(actor, target); !d.Allowed() {
		return nil, errForbidden()
	}
	roles, err := s.resolveRoles(ctx, in.Roles)
	if err != nil {
		return nil, err
	}
	target.Name = strings.TrimSpace(in.Name)
	target.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Password != "" {
		target.PasswordHash = utils.HashPassword(in.Password)
	}
	if err := s.users.Update(ctx, target, roles); err != nil {
		if isDupKey(err) {
			return nil, invalidField("email", "email already taken")
		}
		return nil, &PersistenceError{Op: "update user", Err: err}
	}
	target.Roles = roles
	s.log.Info("user updated", zap.Uint("id", id), zap.Uint("actor", actor.ID))
	return target, nil
}

func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	target, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanDelete(actor, target); !d.Allowed() {
		return errForbidden()
	}
	if err := s.users.Delete(ctx, target); err != nil {
		return &PersistenceError{Op: "delete user", Err: err}
	}
	s.log.Info("user deleted", zap.Uint("id", id), zap.Uint("actor", actor.ID))
	return nil
}

// ToggleResult 切换结果；Notice 非空表示被策略软拦截，状态未变
type ToggleResult struct {
	Active bool
	Notice string
}

func (s *UserService) ToggleStatus(ctx context.Context, actor authz.Actor, id uint) (ToggleResult, error) {
	target, err := s.find(ctx, id)
	if err != nil {
		return ToggleResult{}, err
	}
	if d := authz.CanToggleStatus(target); d.Effect == authz.DenyNotice {
		return ToggleResult{Active: target.Status, Notice: d.Message}, nil
	}
	next := !target.Status
	if err := s.users.SetStatus(ctx, id, next); err != nil {
		return ToggleResult{}, &PersistenceError{Op: "toggle status", Err: err}
	}
	// 停用后标记会话失效；标记失败不影响切换结果，门卫仍会读库
	if next {
		if err := s.sessions.Revive(ctx, id); err != nil {
			s.log.Warn("session revive failed", zap.Uint("id", id), zap.Error(err))
		}
	} else {
		if err := s.sessions.Kill(ctx, id); err != nil {
			s.log.Warn("session kill failed", zap.Uint("id", id), zap.Error(err))
		}
	}
	s.log.Info("user status toggled",
		zap.Uint("id", id), zap.Bool("active", next), zap.Uint("actor", actor.ID))
	return ToggleResult{Active: next}, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.find(ctx, id)
}

// StatusCheck 会话状态轮询：不活跃就地登出（与谁执行的停用无关）
type StatusCheck struct {
	Logout  bool   `json:"logout"`
	Message string `json:"message"`
}

func (s *UserService) CheckStatus(ctx context.Context, uid uint) StatusCheck {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		s.log.Error("check status", zap.Uint("id", uid), zap.Error(err))
		// 查库失败不强踢人，下次轮询再说
		return StatusCheck{Logout: false, Message: "User is active"}
	}
	if u == nil || !u.Status {
		if err := s.sessions.Kill(ctx, uid); err != nil {
			s.log.Warn("session kill failed", zap.Uint("id", uid), zap.Error(err))
		}
		return StatusCheck{Logout: true, Message: "User is inactive"}
	}
	return StatusCheck{Logout: false, Message: "User is active"}
}

// RoleCatalog 建表单/编辑表单用的角色名列表
func (s *UserService) RoleCatalog(ctx context.Context) ([]string, error) {
	names, err := s.roles.Names(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list roles", Err: err}
	}
	return names, nil
}

func (s *UserService) find(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "find user", Err: err}
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]domain.Role, error) {
	roles, err := s.roles.FindByNames(ctx, names)
	if err != nil {
		return nil, &PersistenceError{Op: "resolve roles", Err: err}
	}
	found := map[string]struct{}{}
	for _, r := range roles {
		found[r.Name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := found[n]; !ok {
			return nil, invalidField("roles", "unknown role: "+n)
		}
	}
	return roles, nil
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
