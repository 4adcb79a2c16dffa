package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-admin-users/internal/domain"
)

// 可排序列白名单（防注入）
var sortableColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User, roles []domain.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		if len(roles) == 0 {
			return nil
		}
		return tx.Model(u).Association("Roles").Append(roles)
	})
}

// Update 字段保存 + 角色全量替换（sync 语义），同一事务
func (r *UserRepo) Update(ctx context.Context, u *domain.User, roles []domain.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(u).Error; err != nil {
			return err
		}
		return tx.Model(u).Association("Roles").Replace(roles)
	})
}

// Delete 先清角色关联再删记录；任一步失败整体回滚
func (r *UserRepo) Delete(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(u).Association("Roles").Clear(); err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}

func (r *UserRepo) SetStatus(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("status", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Roles.Permissions").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Roles.Permissions").First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &u, err
}

func (r *UserRepo) Page(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, 0, err
	}

	filteredQ := r.db.WithContext(ctx).Model(&domain.User{})
	searched := false
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		filteredQ = filteredQ.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		searched = true
	}
	filtered := total
	if searched {
		if err := filteredQ.Count(&filtered).Error; err != nil {
			return nil, 0, 0, err
		}
	}

	col, ok := sortableColumns[q.OrderBy]
	if !ok {
		col, q.Desc = "id", true // 默认最新在前
	}
	order := col
	if q.Desc {
		order += " DESC"
	}

	var users []domain.User
	err := filteredQ.
		Preload("Roles").
		Order(order).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, 0, err
	}
	return users, total, filtered, nil
}
