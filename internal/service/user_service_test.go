package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-admin-users/internal/authz"
	"go-admin-users/internal/domain"
	"go-admin-users/pkg/utils"
)

func newTestService(t *testing.T, roleNames ...string) (*UserService, *fakeUserRepo, *fakeSessions) {
	t.Helper()
	if len(roleNames) == 0 {
		roleNames = []string{domain.RoleSuperAdmin, "Editor", "Viewer"}
	}
	users := newFakeUserRepo()
	sessions := newFakeSessions()
	svc := NewUserService(users, newFakeRoleRepo(roleNames...), sessions, zap.NewNop())
	return svc, users, sessions
}

func testActor(id uint, roles []string, perms []string) authz.Actor {
	a := authz.Actor{ID: id, Roles: map[string]struct{}{}, Perms: map[string]struct{}{}}
	for _, r := range roles {
		a.Roles[r] = struct{}{}
	}
	for _, p := range perms {
		a.Perms[p] = struct{}{}
	}
	return a
}

func allPermsActor(id uint, roles ...string) authz.Actor {
	return testActor(id, roles, []string{domain.PermCreateUser, domain.PermEditUser, domain.PermDeleteUser})
}

func seedUser(t *testing.T, repo *fakeUserRepo, name, email string, active bool, roles ...string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: utils.HashPassword("initial-pass"),
		Status:       active,
	}
	var rs []domain.Role
	for i, r := range roles {
		rs = append(rs, domain.Role{ID: uint(i + 1), Name: r})
	}
	require.NoError(t, repo.Create(context.Background(), u, rs))
	return u
}

func TestCreateHashesPasswordAndAssignsRoles(t *testing.T) {
	svc, repo, _ := newTestService(t)
	actor := allPermsActor(1)

	u, err := svc.Create(context.Background(), actor, CreateInput{
		Name:     "Jane",
		Email:    "Jane@Example.com",
		Password: "s3cret-pass",
		Roles:    []string{"Editor"},
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "jane@example.com", stored.Email)
	assert.True(t, stored.Status, "new users default to active")
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, utils.CheckPassword("s3cret-pass", stored.PasswordHash))
	assert.Equal(t, []string{"Editor"}, stored.RoleNames())
}

func TestCreateUnknownRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), allPermsActor(1), CreateInput{
		Name: "Jane", Email: "jane@example.com", Password: "s3cret-pass",
		Roles: []string{"Warlord"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["roles"], "Warlord")
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")

	_, err := svc.Create(context.Background(), allPermsActor(1), CreateInput{
		Name: "Other", Email: "jane@example.com", Password: "s3cret-pass",
		Roles: []string{"Editor"},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}

func TestUpdateEmptyPasswordKeepsHash(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")
	before, _ := repo.FindByID(context.Background(), target.ID)

	_, err := svc.Update(context.Background(), allPermsActor(99), target.ID, UpdateInput{
		Name: "Jane Doe", Email: "jane@example.com", Password: "",
		Roles: []string{"Editor"},
	})
	require.NoError(t, err)

	after, _ := repo.FindByID(context.Background(), target.ID)
	assert.Equal(t, "Jane Doe", after.Name)
	assert.Equal(t, before.PasswordHash, after.PasswordHash, "empty password must not overwrite hash")
}

func TestUpdateNewPasswordReplacesHash(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")

	_, err := svc.Update(context.Background(), allPermsActor(99), target.ID, UpdateInput{
		Name: "Jane", Email: "jane@example.com", Password: "brand-new-pass",
		Roles: []string{"Editor"},
	})
	require.NoError(t, err)

	after, _ := repo.FindByID(context.Background(), target.ID)
	assert.True(t, utils.CheckPassword("brand-new-pass", after.PasswordHash))
	assert.False(t, utils.CheckPassword("initial-pass", after.PasswordHash))
}

func TestUpdateSyncReplacesRoleSetExactly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor", "Viewer")

	_, err := svc.Update(context.Background(), allPermsActor(99), target.ID, UpdateInput{
		Name: "Jane", Email: "jane@example.com",
		Roles: []string{"Viewer"},
	})
	require.NoError(t, err)

	after, _ := repo.FindByID(context.Background(), target.ID)
	assert.Equal(t, []string{"Viewer"}, after.RoleNames(), "roles are synced, not merged")
}

func TestUpdateSuperAdminTargetRequiresSuperAdminActor(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Root", "root@example.com", true, domain.RoleSuperAdmin)

	// edit-user 权限在手也不行
	editor := testActor(99, []string{"Editor"}, []string{domain.PermEditUser})
	_, err := svc.Update(context.Background(), editor, target.ID, UpdateInput{
		Name: "Rooted", Email: "root@example.com", Roles: []string{domain.RoleSuperAdmin},
	})
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, authz.ForbiddenMessage, ae.Message)

	super := testActor(1, []string{domain.RoleSuperAdmin}, []string{domain.PermEditUser})
	_, err = svc.Update(context.Background(), super, target.ID, UpdateInput{
		Name: "Rooted", Email: "root@example.com", Roles: []string{domain.RoleSuperAdmin},
	})
	assert.NoError(t, err)
}

func TestDeleteSelfForbiddenAndRecordUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")

	err := svc.Delete(context.Background(), allPermsActor(target.ID, domain.RoleSuperAdmin), target.ID)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)

	still, _ := repo.FindByID(context.Background(), target.ID)
	require.NotNil(t, still, "record must remain after denied self-delete")
	assert.Equal(t, []string{"Editor"}, still.RoleNames(), "role links untouched")
}

func TestDeleteSuperAdminForbidden(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Root", "root@example.com", true, domain.RoleSuperAdmin)

	err := svc.Delete(context.Background(), allPermsActor(99), target.ID)
	var ae *AuthorizationError
	require.ErrorAs(t, err, &ae)
}

func TestDeleteRemovesUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")

	require.NoError(t, svc.Delete(context.Background(), allPermsActor(99), target.ID))
	gone, _ := repo.FindByID(context.Background(), target.ID)
	assert.Nil(t, gone)
}

func TestToggleActiveSuperAdminYieldsNotice(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	target := seedUser(t, repo, "Root", "root@example.com", true, domain.RoleSuperAdmin)

	res, err := svc.ToggleStatus(context.Background(), allPermsActor(99), target.ID)
	require.NoError(t, err)
	assert.Equal(t, "You cannot deactivate a Super Admin user.", res.Notice)
	assert.True(t, res.Active)

	after, _ := repo.FindByID(context.Background(), target.ID)
	assert.True(t, after.Status, "status must not flip on soft denial")
	assert.False(t, sessions.Killed(context.Background(), target.ID))
}

func TestToggleInactiveSuperAdminReactivates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	target := seedUser(t, repo, "Root", "root@example.com", false, domain.RoleSuperAdmin)

	res, err := svc.ToggleStatus(context.Background(), allPermsActor(99), target.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Notice)
	assert.True(t, res.Active)

	after, _ := repo.FindByID(context.Background(), target.ID)
	assert.True(t, after.Status)
}

func TestToggleDeactivationKillsSession(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")

	res, err := svc.ToggleStatus(context.Background(), allPermsActor(99), target.ID)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.True(t, sessions.Killed(context.Background(), target.ID))
}

func TestToggleReactivationRevivesSession(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	target := seedUser(t, repo, "Jane", "jane@example.com", false, "Editor")
	_ = sessions.Kill(context.Background(), target.ID)

	res, err := svc.ToggleStatus(context.Background(), allPermsActor(99), target.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.False(t, sessions.Killed(context.Background(), target.ID))
}

func TestToggleNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ToggleStatus(context.Background(), allPermsActor(99), 12345)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCheckStatus(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	active := seedUser(t, repo, "Jane", "jane@example.com", true, "Editor")
	inactive := seedUser(t, repo, "Joe", "joe@example.com", false, "Editor")

	out := svc.CheckStatus(context.Background(), active.ID)
	assert.False(t, out.Logout)
	assert.Equal(t, "User is active", out.Message)

	out = svc.CheckStatus(context.Background(), inactive.ID)
	assert.True(t, out.Logout)
	assert.Equal(t, "User is inactive", out.Message)
	assert.True(t, sessions.Killed(context.Background(), inactive.ID))
}
