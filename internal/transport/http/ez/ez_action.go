package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	resp "go-admin-users/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindForm  Binder = "form"  // 从表单绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.PostForm 取
)

// AErr 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action 非 CRUD 接口的一行注册：I 入参，O 出参。
// 事务边界在 service/repo 层，handler 不碰裸 DB
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "PATCH" | "DELETE"
	Path    string // 例："/auth/login"、"/users/:id/toggle-status"
	Binder  Binder
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindForm:
			bindErr = c.ShouldBind(&in)
		default: // BindNone
		}
		if bindErr != nil {
			resp.JSON(c, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			var ae *AErr
			if errors.As(err, &ae) {
				resp.JSON(c, resp.Error(ae.Code, ae.Error()))
				return
			}
			resp.JSON(c, resp.Error(resp.CodeServerError, err.Error()))
			return
		}
		resp.JSON(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
