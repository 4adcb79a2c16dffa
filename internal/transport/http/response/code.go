package response

import "net/http"

// 常见业务 系统级错误码（直接基于 HTTP 语义）
const (
	CodeOK           = 0
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
	CodeTimeout      = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:           "OK",
	CodeBadRequest:   "Bad Request",
	CodeUnauthorized: "Unauthorized",
	CodeForbidden:    "Forbidden",
	CodeNotFound:     "Not Found",
	CodeServerError:  "Internal Server Error",
	CodeTimeout:      "Timeout",
}

func HTTPStatus(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	if http.StatusText(code) != "" {
		return code
	}
	return http.StatusInternalServerError
}
