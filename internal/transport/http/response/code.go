package response

import "net/http"

// 固定文案；500 类错误不把内部原因透出
const (
	MsgUnauthorized   = "Could not validate credentials"
	MsgBadCredentials = "Incorrect email or password"
	MsgNotFound       = "Document not found"
	MsgExtraction     = "Failed to extract text from file"
	MsgEnrichment     = "Failed to generate content"
	MsgInternal       = "internal server error"
	MsgTooMany        = "too many requests"
	MsgBusy           = "server busy"
	MsgTimeout        = "request timeout"
	MsgBodyTooLarge   = "request body too large"
)

// CodeMsgMap 状态码缺省文案
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          MsgUnauthorized,
	http.StatusNotFound:              "Not Found",
	http.StatusRequestEntityTooLarge: MsgBodyTooLarge,
	http.StatusUnprocessableEntity:   "Unprocessable Entity",
	http.StatusTooManyRequests:       MsgTooMany,
	http.StatusInternalServerError:   MsgInternal,
	http.StatusServiceUnavailable:    MsgBusy,
	http.StatusGatewayTimeout:        MsgTimeout,
}
