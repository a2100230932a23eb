package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/news"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type NewsHandler struct {
	svc  *news.Service
	gate *middleware.Gate
}

func NewNewsHandler(svc *news.Service, gate *middleware.Gate) *NewsHandler {
	return &NewsHandler{svc: svc, gate: gate}
}

func (h *NewsHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/news")
	g.GET("", h.List)
	g.GET("/:newsId", h.Get)

	admin := g.Group("", h.gate.Authenticate(), middleware.RequireAdmin())
	admin.POST("", h.Create)
	admin.PUT("/:newsId", h.Update)
	admin.DELETE("/:newsId", h.Delete)
}

func (h *NewsHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NewsHandler) Get(c *gin.Context) {
	n, err := h.svc.Get(c.Request.Context(), c.Param("newsId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NewsHandler) Create(c *gin.Context) {
	var in news.Input
	if !bind(c, &in) {
		return
	}
	files, ok := attachments(c)
	if !ok {
		return
	}
	n, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "news created", "news": n})
}

func (h *NewsHandler) Update(c *gin.Context) {
	var in news.Input
	if !bind(c, &in) {
		return
	}
	files, ok := attachments(c)
	if !ok {
		return
	}
	n, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("newsId"), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "news updated", "news": n})
}

func (h *NewsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("newsId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "news deleted")
}
