package handlers

import (
	"github.com/campusnet/campusnet/backend/go-services/internal/auth"
	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/internal/news"
	"github.com/campusnet/campusnet/backend/go-services/internal/notifications"
	"github.com/campusnet/campusnet/backend/go-services/internal/programs"
	"github.com/campusnet/campusnet/backend/go-services/internal/publications"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP surface calls into.
type Services struct {
	Gate           *middleware.Gate
	Auth           *auth.Service
	Users          *users.Service
	Media          *media.Service
	Programs       *programs.Service
	Candidatures   *candidatures.Service
	Notifications  *notifications.Service
	Publications   *publications.Service
	News           *news.Service
	AllowedOrigins []string
}

// Mount registers every API route on r. /api carries the domain endpoints, /media the upload endpoints.
func Mount(r *gin.Engine, s Services, api ...gin.HandlerFunc) {
	r.MaxMultipartMemory = maxMultipartMemory

	g := r.Group("/api", api...)
	NewAuthHandler(s.Auth).Register(g)
	NewUserHandler(s.Users, s.Media, s.Gate).Register(g)
	NewProgramHandler(s.Programs, s.Gate).Register(g)
	NewCandidatureHandler(s.Candidatures, s.Media, s.Gate).Register(g)
	NewNotificationHandler(s.Notifications, s.Gate, s.AllowedOrigins).Register(g)
	NewPublicationHandler(s.Publications, s.Gate).Register(g)
	NewNewsHandler(s.News, s.Gate).Register(g)

	NewMediaHandler(s.Media, s.Gate).Register(r.Group("", api...))
	RegisterSwagger(r)
}
