package repo

import (
	"context"

	"gorm.io/gorm"

	"go-admin-users/internal/domain"
)

type RoleRepo struct{ db *gorm.DB }

func NewRoleRepo(db *gorm.DB) *RoleRepo { return &RoleRepo{db: db} }

func (r *RoleRepo) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&domain.Role{}).Order("name").Pluck("name", &names).Error
	return names, err
}

func (r *RoleRepo) FindByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []domain.Role
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error
	return roles, err
}

// EnsureBaseline 保底数据：三个用户权限 + Super Admin 角色（全权限）
// 角色/权限的日常管理属于另一个后台流程，这里只兜底首启
func (r *RoleRepo) EnsureBaseline(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make([]domain.Permission, 0, 3)
		for _, name := range []string{domain.PermCreateUser, domain.PermEditUser, domain.PermDeleteUser} {
			var p domain.Permission
			if err := tx.Where("name = ?", name).FirstOrCreate(&p, domain.Permission{Name: name}).Error; err != nil {
				return err
			}
			perms = append(perms, p)
		}
		var super domain.Role
		if err := tx.Where("name = ?", domain.RoleSuperAdmin).
			FirstOrCreate(&super, domain.Role{Name: domain.RoleSuperAdmin}).Error; err != nil {
			return err
		}
		return tx.Model(&super).Association("Permissions").Replace(perms)
	})
}
