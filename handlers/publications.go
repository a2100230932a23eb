package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/publications"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type PublicationHandler struct {
	svc  *publications.Service
	gate *middleware.Gate
}

func NewPublicationHandler(svc *publications.Service, gate *middleware.Gate) *PublicationHandler {
	return &PublicationHandler{svc: svc, gate: gate}
}

// Register mounts the feed. Reads attach the viewer when a valid token is sent so isLiked is filled in.
func (h *PublicationHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/publications")
	g.GET("", h.gate.OptionalAuth(), h.List)
	g.GET("/university/:id", h.gate.OptionalAuth(), h.ListByUniversity)
	g.GET("/:id", h.gate.OptionalAuth(), h.Get)

	authed := g.Group("", h.gate.Authenticate())
	authed.POST("/posts", h.Create)
	authed.PUT("/:id", h.Update)
	authed.DELETE("/:id", h.Delete)
	authed.POST("/:id/like", h.ToggleLike)
}

func (h *PublicationHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PublicationHandler) ListByUniversity(c *gin.Context) {
	list, err := h.svc.ListByUniversity(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PublicationHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PublicationHandler) Create(c *gin.Context) {
	var in publications.Input
	if !bind(c, &in) {
		return
	}
	files, ok := attachments(c)
	if !ok {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "publication created", "publication": p})
}

func (h *PublicationHandler) Update(c *gin.Context) {
	var in publications.Input
	if !bind(c, &in) {
		return
	}
	files, ok := attachments(c)
	if !ok {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "publication updated", "publication": p})
}

func (h *PublicationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "publication deleted")
}

func (h *PublicationHandler) ToggleLike(c *gin.Context) {
	res, err := h.svc.ToggleLike(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
