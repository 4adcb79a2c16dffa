package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-admin-users/internal/domain"
)

// 内存版仓储，行为对齐 gorm 实现（搜索/排序/分页、角色全量替换）

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   uint
	users map[uint]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*domain.User{}}
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Roles = append([]domain.Role(nil), u.Roles...)
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User, roles []domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email {
			return errDuplicate
		}
	}
	r.seq++
	u.ID = r.seq
	cp := cloneUser(u)
	cp.Roles = append([]domain.Role(nil), roles...)
	r.users[u.ID] = cp
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User, roles []domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneUser(u)
	cp.Roles = append([]domain.Role(nil), roles...)
	r.users[u.ID] = cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, u.ID)
	return nil
}

func (r *fakeUserRepo) SetStatus(_ context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errNotFound
	}
	u.Status = active
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Page(_ context.Context, q domain.ListQuery) ([]domain.User, int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *cloneUser(u))
	}
	total := int64(len(all))

	matched := all
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		matched = nil
		for _, u := range all {
			if strings.Contains(strings.ToLower(u.Name), s) || strings.Contains(strings.ToLower(u.Email), s) {
				matched = append(matched, u)
			}
		}
	}
	filtered := int64(len(matched))

	orderBy, desc := q.OrderBy, q.Desc
	if orderBy == "" {
		orderBy, desc = "id", true
	}
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch orderBy {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "email":
			less = matched[i].Email < matched[j].Email
		default:
			less = matched[i].ID < matched[j].ID
		}
		if desc {
			return !less
		}
		return less
	})

	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], total, filtered, nil
}

type fakeRoleRepo struct {
	roles map[string]domain.Role
}

func newFakeRoleRepo(names ...string) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: map[string]domain.Role{}}
	id := uint(0)
	for _, n := range names {
		id++
		r.roles[n] = domain.Role{ID: id, Name: n}
	}
	return r
}

func (r *fakeRoleRepo) Names(context.Context) ([]string, error) {
	names := make([]string, 0, len(r.roles))
	for n := range r.roles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeRoleRepo) FindByNames(_ context.Context, names []string) ([]domain.Role, error) {
	var out []domain.Role
	for _, n := range names {
		if role, ok := r.roles[n]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *fakeRoleRepo) EnsureBaseline(context.Context) error { return nil }

type fakeSessions struct {
	mu     sync.Mutex
	killed map[uint]bool
}

func newFakeSessions() *fakeSessions { return &fakeSessions{killed: map[uint]bool{}} }

func (s *fakeSessions) Kill(_ context.Context, uid uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed[uid] = true
	return nil
}

func (s *fakeSessions) Revive(_ context.Context, uid uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.killed, uid)
	return nil
}

func (s *fakeSessions) Killed(_ context.Context, uid uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killed[uid]
}

type strError string

func (e strError) Error() string { return string(e) }

const (
	errDuplicate = strError("duplicate entry for key email")
	errNotFound  = strError("record not found")
)
