package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"docmanager/internal/domain"
	resp "docmanager/internal/transport/http/response"
)

// Translate 业务错误 -> (HTTP 状态码, detail)；5xx 只给固定文案
func Translate(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae.Code, ae.Error()
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, detail(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, resp.MsgBadCredentials
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, resp.MsgUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, resp.MsgNotFound
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusBadRequest, detail(err, domain.ErrDuplicate)
	case errors.Is(err, domain.ErrTooLarge):
		return http.StatusBadRequest, "file too large: " + detail(err, domain.ErrTooLarge)
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusBadRequest, detail(err, domain.ErrUnsupportedMedia)
	case errors.Is(err, domain.ErrEmptyContent):
		return http.StatusBadRequest, detail(err, domain.ErrEmptyContent)
	case errors.Is(err, domain.ErrExtraction):
		return http.StatusInternalServerError, resp.MsgExtraction
	case errors.Is(err, domain.ErrEnrichment):
		return http.StatusInternalServerError, resp.MsgEnrichment
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp.MsgTimeout
	default:
		return http.StatusInternalServerError, resp.MsgInternal
	}
}

// detail 去掉 "sentinel: " 前缀，只留业务说明
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		if rest := msg[i+len(sentinel.Error())+2:]; rest != "" {
			return rest
		}
	}
	return msg
}
