package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	svc  *media.Service
	gate *middleware.Gate
}

func NewMediaHandler(svc *media.Service, gate *middleware.Gate) *MediaHandler {
	return &MediaHandler{svc: svc, gate: gate}
}

// Register mounts the media routes on the root group (/media/...).
func (h *MediaHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/media", h.gate.Authenticate())
	g.POST("/media", h.Upload)
	g.GET("/user/:id", h.ListByUser)
}

// Upload stores the single multipart "file". The "type" form value defaults to document.
func (h *MediaHandler) Upload(c *gin.Context) {
	file, err := formFile(c, "file")
	if err != nil {
		response.BadRequest(c, "invalid multipart body")
		return
	}
	m, err := h.svc.Upload(c.Request.Context(), middleware.CurrentUser(c), file, models.MediaType(c.PostForm("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "file uploaded", "fileUrl": m.URL, "media": m})
}

func (h *MediaHandler) ListByUser(c *gin.Context) {
	list, err := h.svc.ListByUser(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
