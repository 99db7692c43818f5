package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/service"
	"docmanager/internal/transport/http/ez"
)

type SummaryHandler struct {
	svc *service.SummaryService
}

func NewSummaryHandler(svc *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{svc: svc}
}

func (*SummaryHandler) Priority() int { return 40 }

// askIn 先绑 uri 再绑 query；question 为空由 service 返回校验错误
type askIn struct {
	idURI
	Question string `form:"question"`
}

type generateOut struct {
	Message  string           `json:"message"`
	Summary  *string          `json:"summary"`
	Keywords *string          `json:"keywords"`
	Document *domain.Document `json:"document"`
}

// batchIn 兼容 {"document_ids": [...]} 与裸数组 [...]
type batchIn struct {
	DocumentIDs []uint `json:"document_ids"`
}

func (b *batchIn) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &b.DocumentIDs)
	}
	type plain batchIn
	return json.Unmarshal(data, (*plain)(b))
}

func (h *SummaryHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private.Group("/summary"))

	ez.RegisterAction(e, ez.Action[batchIn, service.BatchResult]{
		Method: http.MethodPost,
		Path:   "/batch-summarize",
		Auth:   true,
		Handler: func(c *gin.Context, in *batchIn) (service.BatchResult, error) {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				return service.BatchResult{}, ez.Unprocessable("cannot read request body")
			}
			if err := json.Unmarshal(body, in); err != nil {
				return service.BatchResult{}, ez.Unprocessable("body must be {\"document_ids\": [...]} or a JSON array of ids")
			}
			return h.svc.Batch(c, in.DocumentIDs, me(c))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, service.Statistics]{
		Method: http.MethodGet,
		Path:   "/statistics",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (service.Statistics, error) {
			return h.svc.Statistics(c, me(c))
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, generateOut]{
		Method: http.MethodPost,
		Path:   "/:id/generate",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (generateOut, error) {
			doc, err := h.svc.Generate(c, in.ID, me(c))
			if err != nil {
				return generateOut{}, err
			}
			return generateOut{
				Message:  "Summary generated successfully",
				Summary:  doc.Summary,
				Keywords: doc.Keywords,
				Document: doc,
			}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, service.SummaryView]{
		Method: http.MethodGet,
		Path:   "/:id/summary",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (service.SummaryView, error) {
			return h.svc.Get(c, in.ID, me(c))
		},
	})

	ez.RegisterAction(e, ez.Action[askIn, service.AnswerView]{
		Method: http.MethodPost,
		Path:   "/:id/ask",
		Binder: []ez.Binder{ez.BindURI, ez.BindQuery},
		Auth:   true,
		Handler: func(c *gin.Context, in *askIn) (service.AnswerView, error) {
			return h.svc.Ask(c, in.ID, me(c), in.Question)
		},
	})
}
