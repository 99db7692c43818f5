package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/service"
	"docmanager/internal/transport/http/ez"
)

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (*DocumentHandler) Priority() int { return 20 }

type uploadIn struct {
	File  *multipart.FileHeader `form:"file" binding:"required"`
	Title string                `form:"title"`
}

type pageQuery struct {
	Skip  int `form:"skip"  binding:"min=0"`
	Limit int `form:"limit" binding:"min=0"`
}

type processOut struct {
	Message  string           `json:"message"`
	Document *domain.Document `json:"document"`
}

func (h *DocumentHandler) MountAPI(_, private *gin.RouterGroup) {
	e := ez.New(private.Group("/documents"))

	ez.RegisterAction(e, ez.Action[uploadIn, *domain.Document]{
		Method: http.MethodPost,
		Path:   "/",
		Binder: []ez.Binder{ez.BindForm},
		Auth:   true,
		Handler: func(c *gin.Context, in *uploadIn) (*domain.Document, error) {
			f, err := in.File.Open()
			if err != nil {
				return nil, ez.BadRequest("cannot read uploaded file")
			}
			defer f.Close()
			return h.svc.Upload(c, me(c), service.UploadInput{
				Filename: in.File.Filename,
				Title:    in.Title,
				Reader:   f,
			})
		},
	})

	ez.RegisterAction(e, ez.Action[pageQuery, []domain.Document]{
		Method: http.MethodGet,
		Path:   "/",
		Binder: []ez.Binder{ez.BindQuery},
		Auth:   true,
		Handler: func(c *gin.Context, in *pageQuery) ([]domain.Document, error) {
			return h.svc.List(c, me(c), in.Skip, in.Limit)
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

	ez.RegisterAction(e, ez.Action[idURI, message]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (message, error) {
			ok, err := h.svc.Delete(c, in.ID, me(c))
			if err != nil {
				return message{}, err
			}
			if !ok {
				return message{}, domain.ErrNotFound
			}
			return message{Message: "Document deleted successfully"}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, processOut]{
		Method: http.MethodPost,
		Path:   "/:id/process",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (processOut, error) {
			doc, err := h.svc.Enrich(c, in.ID, me(c))
			if err != nil {
				return processOut{}, err
			}
			return processOut{Message: "Document processed", Document: doc}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[idURI, service.DownloadInfo]{
		Method: http.MethodGet,
		Path:   "/:id/download",
		Binder: []ez.Binder{ez.BindURI},
		Auth:   true,
		Handler: func(c *gin.Context, in *idURI) (service.DownloadInfo, error) {
			return h.svc.DownloadInfo(c, in.ID, me(c))
		},
	})
}
