package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/notifications"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type NotificationHandler struct {
	svc      *notifications.Service
	gate     *middleware.Gate
	upgrader websocket.Upgrader
}

// NewNotificationHandler accepts websocket handshakes from the given origins; none means any origin.
func NewNotificationHandler(svc *notifications.Service, gate *middleware.Gate, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		svc:  svc,
		gate: gate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *NotificationHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/notifications")
	g.GET("/ws", h.gate.AuthenticateWS(), h.Stream)
	g.GET("/:id", h.gate.Authenticate(), h.ListForUser)
}

func (h *NotificationHandler) ListForUser(c *gin.Context) {
	list, err := h.svc.ListForUser(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stream upgrades to a websocket and pushes the caller's notifications as they are created.
func (h *NotificationHandler) Stream(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.svc.LiveAvailable(); err != nil {
		response.Error(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnw("websocket upgrade failed", logger.Fields{"user": user.ID.Hex(), "error": err.Error()})
		return
	}
	defer conn.Close()

	if err := h.svc.Stream(c.Request.Context(), user.ID.Hex(), conn); err != nil {
		logger.Warnw("notification stream ended", logger.Fields{"user": user.ID.Hex(), "error": err.Error()})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream unavailable"))
	}
}
