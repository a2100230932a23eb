package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/programs"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	svc  *programs.Service
	gate *middleware.Gate
}

func NewProgramHandler(svc *programs.Service, gate *middleware.Gate) *ProgramHandler {
	return &ProgramHandler{svc: svc, gate: gate}
}

func (h *ProgramHandler) Register(rg *gin.RouterGroup) {
	p := rg.Group("/programs")
	p.GET("", h.List)
	p.GET("/search", h.Search)
	p.GET("/university/:id", h.ListByUniversity)
	p.GET("/:programId", h.Get)

	authed := p.Group("", h.gate.Authenticate())
	authed.POST("", h.Create)
	authed.PUT("/:programId", h.Update)
	authed.DELETE("/:programId", h.Delete)
	authed.POST("/:programId/apply", h.Apply)
}

func (h *ProgramHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProgramHandler) Search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProgramHandler) ListByUniversity(c *gin.Context) {
	list, err := h.svc.ListByUniversity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProgramHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProgramHandler) Create(c *gin.Context) {
	var in programs.Input
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
	c.JSON(http.StatusCreated, gin.H{"message": "program created", "program": p})
}

func (h *ProgramHandler) Update(c *gin.Context) {
	var in programs.Input
	if !bind(c, &in) {
		return
	}
	files, ok := attachments(c)
	if !ok {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("programId"), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "program updated", "program": p})
}

func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("programId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "program deleted")
}

func (h *ProgramHandler) Apply(c *gin.Context) {
	cand, err := h.svc.Apply(c.Request.Context(), middleware.CurrentUser(c), c.Param("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "application submitted", "candidature": cand})
}
