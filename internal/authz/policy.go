package authz

import "go-admin-users/internal/domain"

// Actor 当前登录请求者，角色/权限解析成集合后传入（不做任何全局查找）
type Actor struct {
	ID    uint
	Roles map[string]struct{}
	Perms map[string]struct{}
}

func NewActor(u *domain.User) Actor {
	a := Actor{
		ID:    u.ID,
		Roles: map[string]struct{}{},
		Perms: map[string]struct{}{},
	}
	for _, r := range u.RoleNames() {
		a.Roles[r] = struct{}{}
	}
	for _, p := range u.PermissionNames() {
		a.Perms[p] = struct{}{}
	}
	return a
}

func (a Actor) HasRole(name string) bool { _, ok := a.Roles[name]; return ok }
func (a Actor) Can(perm string) bool     { _, ok := a.Perms[perm]; return ok }

// Effect 决策结果
type Effect int

const (
	Allow Effect = iota
	// DenyForbidden 硬拒绝（403）
	DenyForbidden
	// DenyNotice 软拒绝（提示语，不是错误状态）
	DenyNotice
)

type Decision struct {
	Effect  Effect
	Message string
}

func (d Decision) Allowed() bool { return d.Effect == Allow }

const ForbiddenMessage = "USER DOES NOT HAVE THE RIGHT PERMISSIONS"

var (
	allow     = Decision{Effect: Allow}
	forbidden = Decision{Effect: DenyForbidden, Message: ForbiddenMessage}
)

// CanViewList 列表/详情：三个用户权限任一即可
func CanViewList(a Actor) bool {
	return a.Can(domain.PermCreateUser) || a.Can(domain.PermEditUser) || a.Can(domain.PermDeleteUser)
}

func CanCreate(a Actor) bool { return a.Can(domain.PermCreateUser) }

// CanEdit 编辑规则：目标是 Super Admin 时，仅 Super Admin 可编辑；
// 否则需要 edit-user 权限（路由层已查过，这里再查一次保持纯函数自洽）
func CanEdit(a Actor, target *domain.User) Decision {
	if !a.Can(domain.PermEditUser) {
		return forbidden
	}
	if target.HasRole(domain.RoleSuperAdmin) && !a.HasRole(domain.RoleSuperAdmin) {
		return forbidden
	}
	return allow
}

// CanDelete 删除规则：Super Admin 不可删，自己不可删（对 Super Admin 也一样）
func CanDelete(a Actor, target *domain.User) Decision {
	if !a.Can(domain.PermDeleteUser) {
		return forbidden
	}
	if target.HasRole(domain.RoleSuperAdmin) || target.ID == a.ID {
		return forbidden
	}
	return allow
}

// CanToggleStatus 状态切换：路由层只要求登录；
// 处于激活状态的 Super Admin 不可停用（软拒绝），重新激活不拦
func CanToggleStatus(target *domain.User) Decision {
	if target.HasRole(domain.RoleSuperAdmin) && target.Status {
		return Decision{Effect: DenyNotice, Message: "You cannot deactivate a Super Admin user."}
	}
	return allow
}
