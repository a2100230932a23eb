package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type CandidatureHandler struct {
	svc   *candidatures.Service
	media *media.Service
	gate  *middleware.Gate
}

func NewCandidatureHandler(svc *candidatures.Service, m *media.Service, gate *middleware.Gate) *CandidatureHandler {
	return &CandidatureHandler{svc: svc, media: m, gate: gate}
}

func (h *CandidatureHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/candidatures")
	g.POST("/documents", h.gate.Authenticate(), h.UploadDocuments)
	g.GET("/university", h.gate.Authenticate(), h.ListByUniversity)
	g.GET("/:id", h.ListByStudent)
	g.PUT("/:id/status", h.gate.Authenticate(), h.UpdateStatus)
}

// UploadDocuments stores the multipart "attachments" on the calling student's file.
func (h *CandidatureHandler) UploadDocuments(c *gin.Context) {
	files, ok := attachments(c)
	if !ok {
		return
	}
	u, err := h.media.UploadDocuments(c.Request.Context(), middleware.CurrentUser(c), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "documents uploaded", "student": u})
}

func (h *CandidatureHandler) ListByStudent(c *gin.Context) {
	list, err := h.svc.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CandidatureHandler) ListByUniversity(c *gin.Context) {
	list, err := h.svc.ListByUniversity(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CandidatureHandler) UpdateStatus(c *gin.Context) {
	var in candidatures.StatusInput
	if !bind(c, &in) {
		return
	}
	cand, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), in.Statut)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated", "candidature": cand})
}
