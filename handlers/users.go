package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *users.Service
	media *media.Service
	gate  *middleware.Gate
}

func NewUserHandler(u *users.Service, m *media.Service, gate *middleware.Gate) *UserHandler {
	return &UserHandler{users: u, media: m, gate: gate}
}

func (h *UserHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.GET("/universities", h.Universities)

	u := rg.Group("/users")
	u.GET("/me", h.gate.Authenticate(), h.Me)
	u.PUT("/me", h.gate.Authenticate(), h.UpdateMe)
	u.GET("/:id", h.Get)
	u.PUT("/:id/authenticity", h.gate.Authenticate(), middleware.RequireAdmin(), h.SetAuthenticity)
	u.POST("/:id/follow", h.gate.Authenticate(), h.Follow)
}

func (h *UserHandler) List(c *gin.Context) {
	list, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) Universities(c *gin.Context) {
	list, err := h.users.ListUniversities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMe accepts JSON or a multipart form with optional "photo" and "coverPhoto" files.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var in users.ProfileInput
	if !bind(c, &in) {
		return
	}
	photo, err := formFile(c, "photo")
	if err != nil {
		response.BadRequest(c, "invalid multipart body")
		return
	}
	cover, err := formFile(c, "coverPhoto")
	if err != nil {
		response.BadRequest(c, "invalid multipart body")
		return
	}
	u, err := h.media.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), in, photo, cover)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type authenticityRequest struct {
	IsAuthentic *bool `json:"isAuthentic" binding:"required"`
}

func (h *UserHandler) SetAuthenticity(c *gin.Context) {
	var req authenticityRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.users.SetEntitlements(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), *req.IsAuthentic)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entitlements updated", "user": u})
}

func (h *UserHandler) Follow(c *gin.Context) {
	res, err := h.users.ToggleFollow(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
