package service

import (
	"context"

	"go-admin-users/internal/authz"
	"go-admin-users/internal/domain"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// TableQuery 服务端驱动表格的请求参数（draw/search/order/分页）
type TableQuery struct {
	Draw        int    `form:"draw"`
	Start       int    `form:"start"`
	Length      int    `form:"length"`
	Search      string `form:"search[value]"`
	OrderColumn int    `form:"order[0][column]"`
	OrderDir    string `form:"order[0][dir]"`
}

// 表格列序号 → 可排序列；其余列不可排序，落回默认序
var orderableColumns = map[int]string{
	1: "name",
	2: "email",
}

type RowToggle struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"` // Activate / Inactivate
}

type RowActions struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Row 列表行投影：结构化字段，渲染交给前端
type Row struct {
	Index   int        `json:"DT_RowIndex"`
	ID      uint       `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Roles   []string   `json:"roles"`
	NoRole  bool       `json:"noRole"`
	Status  string     `json:"status"`
	Toggle  RowToggle  `json:"toggleStatus"`
	Actions RowActions `json:"action"`
}

type TableResult struct {
	Draw            int   `json:"draw"`
	RecordsTotal    int64 `json:"recordsTotal"`
	RecordsFiltered int64 `json:"recordsFiltered"`
	Data            []Row `json:"data"`
}

type IndexPage struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"perPage"`
	LastPage int   `json:"lastPage"`
	Total    int64 `json:"total"`
	Data     []Row `json:"data"`
}

type ListingOptions struct {
	IndexPageSize   int // 服务端渲染 index 页
	DefaultPageSize int // 表格端默认
	MaxPageSize     int // 服务端上限
}

func (o *ListingOptions) fill() {
	if o.IndexPageSize <= 0 {
		o.IndexPageSize = 3
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 10
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
}

type ListingService struct {
	users domain.UserRepository
	opts  ListingOptions
}

func NewListingService(users domain.UserRepository, opts ListingOptions) *ListingService {
	opts.fill()
	return &ListingService{users: users, opts: opts}
}

// Table 交互表格：搜索/排序/分页，行内附加当前查看者的操作可见性
func (s *ListingService) Table(ctx context.Context, actor authz.Actor, q TableQuery) (*TableResult, error) {
	length := q.Length
	if length <= 0 || length > s.opts.MaxPageSize {
		length = s.opts.DefaultPageSize
	}
	if q.Start < 0 {
		q.Start = 0
	}

	lq := domain.ListQuery{
		Offset: q.Start,
		Limit:  length,
		Search: q.Search,
	}
	if col, ok := orderableColumns[q.OrderColumn]; ok {
		lq.OrderBy = col
		lq.Desc = q.OrderDir == "desc"
	}

	users, total, filtered, err := s.users.Page(ctx, lq)
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}

	rows := make([]Row, 0, len(users))
	for i := range users {
		rows = append(rows, projectRow(actor, &users[i], q.Start+i+1))
	}
	return &TableResult{
		Draw:            q.Draw,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
		Data:            rows,
	}, nil
}

// Index 服务端渲染列表页（固定小分页）
func (s *ListingService) Index(ctx context.Context, actor authz.Actor, page int) (*IndexPage, error) {
	if page < 1 {
		page = 1
	}
	size := s.opts.IndexPageSize
	users, total, _, err := s.users.Page(ctx, domain.ListQuery{
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}

	last := int((total + int64(size) - 1) / int64(size))
	if last < 1 {
		last = 1
	}
	rows := make([]Row, 0, len(users))
	for i := range users {
		rows = append(rows, projectRow(actor, &users[i], (page-1)*size+i+1))
	}
	return &IndexPage{Page: page, PerPage: size, LastPage: last, Total: total, Data: rows}, nil
}

func projectRow(actor authz.Actor, u *domain.User, index int) Row {
	status := StatusInactive
	toggleLabel := "Activate"
	if u.Status {
		status = StatusActive
		toggleLabel = "Inactivate"
	}
	return Row{
		Index:  index,
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Roles:  u.RoleNames(),
		NoRole: len(u.Roles) == 0,
		Status: status,
		Toggle: RowToggle{
			Enabled: !u.HasRole(domain.RoleSuperAdmin),
			Label:   toggleLabel,
		},
		Actions: RowActions{
			View:   true,
			Edit:   authz.CanEdit(actor, u).Allowed(),
			Delete: authz.CanDelete(actor, u).Allowed(),
		},
	}
}
