package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/service"
	"docmanager/internal/transport/http/ez"
)

type SearchHandler struct {
	svc *service.SearchService
}

func NewSearchHandler(svc *service.SearchService) *SearchHandler { return &SearchHandler{svc: svc} }

func (*SearchHandler) Priority() int { return 30 }

type searchQuery struct {
	Limit    int    `form:"limit"  binding:"min=0"`
	Offset   int    `form:"offset" binding:"min=0"`
	FileType string `form:"file_type"`
	Q        string `form:"q"`
}

type countOut struct {
	TotalCount int64 `json:"total_count"`
}

func (h *SearchHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private.Group("/search"))

	ez.RegisterAction(e, ez.Action[searchQuery, []domain.Document]{
		Method: http.MethodGet,
		Path:   "/",
		Binder: []ez.Binder{ez.BindQuery},
		Auth:   true,
		Handler: func(c *gin.Context, in *searchQuery) ([]domain.Document, error) {
			return h.svc.List(c, me(c), service.SearchQuery{
				ListFilter: domain.ListFilter{FileType: in.FileType, Offset: in.Offset, Limit: in.Limit},
				Q:          in.Q,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, countOut]{
		Method: http.MethodGet,
		Path:   "/count/total",
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (countOut, error) {
			n, err := h.svc.Count(c, me(c))
			return countOut{TotalCount: n}, err
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, *domain.Document]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (*domain.Document, error) {
			return h.svc.Get(c, in.ID, me(c))
		},
	})
}
