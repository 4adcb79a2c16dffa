package response

import "github.com/gin-gonic/gin"

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Flash 成功响应 + 用户可见提示语（原重定向 + flash 的 JSON 等价物）
func Flash(msg string, data interface{}) Resp {
	return New(CodeOK, msg, data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// JSON 按 code 写对应的 HTTP 状态（403/404 等上线协议要求真实状态码）
func JSON(c *gin.Context, r Resp) {
	c.JSON(HTTPStatus(r.Code), r)
}

// Abort 同 JSON，但中断后续 handler（中间件用）
func Abort(c *gin.Context, r Resp) {
	c.AbortWithStatusJSON(HTTPStatus(r.Code), r)
}
