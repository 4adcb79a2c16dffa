package domain

import (
	"context"
	"time"
)

// 角色/权限常量（Super Admin 在策略层有硬编码特殊处理）
const (
	RoleSuperAdmin = "Super Admin"

	PermCreateUser = "create-user"
	PermEditUser   = "edit-user"
	PermDeleteUser = "delete-user"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Status       bool   `gorm:"not null;default:true" json:"status"` // true=Active
	Roles        []Role `gorm:"many2many:user_roles" json:"roles"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// PermissionNames 汇总用户所有角色授予的权限（去重）
func (u *User) PermissionNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names
}

type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Role) TableName() string { return "roles" }

// Permission 只授予角色，不直接授予用户
type Permission struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

func (Permission) TableName() string { return "permissions" }

// ListQuery 列表查询（搜索/排序/分页）
type ListQuery struct {
	Offset  int
	Limit   int
	Search  string // name/email 模糊匹配
	OrderBy string // 白名单列名，空则默认 id
	Desc    bool
}

type UserRepository interface {
	// Create 建用户 + 分配角色，同一事务
	Create(ctx context.Context, u *User, roles []Role) error
	// Update 保存字段 + 全量同步角色（sync 语义），同一事务
	Update(ctx context.Context, u *User, roles []Role) error
	// Delete 先清空角色关联再删记录，同一事务
	Delete(ctx context.Context, u *User) error
	SetStatus(ctx context.Context, id uint, active bool) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Page 返回一页数据 + 总数 + 过滤后数量
	Page(ctx context.Context, q ListQuery) ([]User, int64, int64, error)
}

type RoleRepository interface {
	Names(ctx context.Context) ([]string, error)
	FindByNames(ctx context.Context, names []string) ([]Role, error)
	EnsureBaseline(ctx context.Context) error
}
