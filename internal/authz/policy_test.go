package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-admin-users/internal/domain"
)

func actorWith(id uint, roles []string, perms []string) Actor {
	a := Actor{ID: id, Roles: map[string]struct{}{}, Perms: map[string]struct{}{}}
	for _, r := range roles {
		a.Roles[r] = struct{}{}
	}
	for _, p := range perms {
		a.Perms[p] = struct{}{}
	}
	return a
}

func userWith(id uint, status bool, roles ...string) *domain.User {
	u := &domain.User{ID: id, Status: status}
	for _, r := range roles {
		u.Roles = append(u.Roles, domain.Role{Name: r})
	}
	return u
}

func TestNewActorResolvesSets(t *testing.T) {
	u := &domain.User{
		ID: 7,
		Roles: []domain.Role{
			{Name: "Editor", Permissions: []domain.Permission{{Name: domain.PermEditUser}}},
			{Name: "Moderator", Permissions: []domain.Permission{{Name: domain.PermEditUser}, {Name: domain.PermDeleteUser}}},
		},
	}
	a := NewActor(u)
	assert.True(t, a.HasRole("Editor"))
	assert.True(t, a.Can(domain.PermEditUser))
	assert.True(t, a.Can(domain.PermDeleteUser))
	assert.False(t, a.Can(domain.PermCreateUser))
}

func TestCanEdit(t *testing.T) {
	editor := actorWith(1, []string{"Editor"}, []string{domain.PermEditUser})
	super := actorWith(2, []string{domain.RoleSuperAdmin}, []string{domain.PermEditUser})
	noperm := actorWith(3, []string{"Viewer"}, nil)

	tests := []struct {
		name   string
		actor  Actor
		target *domain.User
		want   Effect
	}{
		{"editor edits plain user", editor, userWith(10, true, "Editor"), Allow},
		{"editor denied on super admin", editor, userWith(11, true, domain.RoleSuperAdmin), DenyForbidden},
		{"super admin edits super admin", super, userWith(11, true, domain.RoleSuperAdmin), Allow},
		{"no edit permission", noperm, userWith(10, true), DenyForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanEdit(tt.actor, tt.target)
			assert.Equal(t, tt.want, d.Effect)
			if tt.want == DenyForbidden {
				assert.Equal(t, ForbiddenMessage, d.Message)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	actor := actorWith(1, []string{"Admin"}, []string{domain.PermDeleteUser})
	superActor := actorWith(2, []string{domain.RoleSuperAdmin}, []string{domain.PermDeleteUser})

	// Super Admin 目标永远不可删
	assert.Equal(t, DenyForbidden, CanDelete(actor, userWith(9, true, domain.RoleSuperAdmin)).Effect)
	assert.Equal(t, DenyForbidden, CanDelete(superActor, userWith(9, true, domain.RoleSuperAdmin)).Effect)

	// 自删禁止，角色无关
	assert.Equal(t, DenyForbidden, CanDelete(actor, userWith(1, true)).Effect)
	assert.Equal(t, DenyForbidden, CanDelete(superActor, userWith(2, true)).Effect)

	assert.Equal(t, Allow, CanDelete(actor, userWith(5, true, "Editor")).Effect)

	noperm := actorWith(3, nil, []string{domain.PermEditUser})
	assert.Equal(t, DenyForbidden, CanDelete(noperm, userWith(5, true)).Effect)
}

func TestCanToggleStatus(t *testing.T) {
	// 激活中的 Super Admin → 软拒绝
	d := CanToggleStatus(userWith(1, true, domain.RoleSuperAdmin))
	assert.Equal(t, DenyNotice, d.Effect)
	assert.Equal(t, "You cannot deactivate a Super Admin user.", d.Message)

	// 停用中的 Super Admin 可以重新激活
	assert.Equal(t, Allow, CanToggleStatus(userWith(1, false, domain.RoleSuperAdmin)).Effect)

	assert.Equal(t, Allow, CanToggleStatus(userWith(2, true, "Editor")).Effect)
	assert.Equal(t, Allow, CanToggleStatus(userWith(2, false)).Effect)
}

func TestCanViewList(t *testing.T) {
	assert.True(t, CanViewList(actorWith(1, nil, []string{domain.PermCreateUser})))
	assert.True(t, CanViewList(actorWith(1, nil, []string{domain.PermEditUser})))
	assert.True(t, CanViewList(actorWith(1, nil, []string{domain.PermDeleteUser})))
	assert.False(t, CanViewList(actorWith(1, []string{"Viewer"}, nil)))
}
