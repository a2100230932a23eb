package candidatures

import (
	"context"
	"fmt"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier delivers a notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, title, content string) (*models.Notification, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, n Notifier) *Service {
	return &Service{repo: repo, notifier: n}
}

// StatusInput is the body of a status change.
type StatusInput struct {
	Statut models.CandidatureStatus `json:"statut" binding:"required"`
}

// ListByStudent returns a student's candidatures with the university display fields, newest first.
func (s *Service) ListByStudent(ctx context.Context, rawStudentID string) ([]*models.Candidature, error) {
	id, err := models.ParseID(rawStudentID, "student")
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByStudent(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to list candidatures", err)
	}
	return list, nil
}

// ListByUniversity returns the candidatures received by the acting university.
func (s *Service) ListByUniversity(ctx context.Context, actor *models.User) ([]*models.Candidature, error) {
	if !actor.IsUniversity() || !actor.CanManageCandidates {
		return nil, apperror.Forbidden("not allowed to manage candidates")
	}
	list, err := s.repo.ListByUniversity(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Internal("failed to list candidatures", err)
	}
	return list, nil
}

// UpdateStatus accepts or refuses a pending candidature and notifies the student.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, rawID string, next models.CandidatureStatus) (*models.Candidature, error) {
	if !next.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("invalid status %q", next))
	}
	id, err := models.ParseID(rawID, "candidature")
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load candidature", err)
	}
	if c == nil {
		return nil, apperror.NotFound("candidature not found")
	}
	if !actor.IsAdmin() && !(actor.Owns(c.UniversityID) && actor.CanManageCandidates) {
		return nil, apperror.Forbidden("not allowed to manage this candidature")
	}
	if !c.Statut.CanTransition(next) {
		return nil, apperror.Conflict(fmt.Sprintf("cannot change status from %q to %q", c.Statut, next))
	}
	updated, err := s.repo.UpdateStatus(ctx, id, c.Statut, next)
	if err != nil {
		return nil, apperror.Internal("failed to update candidature", err)
	}
	if updated == nil {
		// lost a race with another status change
		return nil, apperror.Conflict("candidature status changed concurrently")
	}
	outcome := statusOutcome(next)
	if _, err := s.notifier.Notify(ctx, c.StudentID, "Application "+outcome,
		fmt.Sprintf("Your application to %s has been %s", c.Title, outcome)); err != nil {
		logger.Warnw("status notification not sent", logger.Fields{"candidature": id.Hex(), "error": err.Error()})
	}
	return updated, nil
}

func statusOutcome(st models.CandidatureStatus) string {
	switch st {
	case models.StatusAccepted:
		return "accepted"
	case models.StatusRejected:
		return "rejected"
	default:
		return "updated"
	}
}
