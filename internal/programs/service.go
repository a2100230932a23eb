package programs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/search"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/campusnet/campusnet/backend/go-services/pkg/sanitize"
	"github.com/campusnet/campusnet/backend/go-services/pkg/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const searchLimit = 20

var errAlreadyApplied = errors.New("student already in applications")

// Notifier stores and delivers notifications. Create and Delete take part in the apply
// transaction; Publish runs once it has committed.
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Publish(ctx context.Context, n *models.Notification)
}

// Input is the program payload for create and update.
type Input struct {
	Title       string   `form:"title" json:"title" binding:"required,max=200"`
	Description string   `form:"description" json:"description" binding:"max=10000"`
	Price       *float64 `form:"price" json:"price" binding:"required,gte=0"`
	Duration    int      `form:"duration" json:"duration" binding:"required,gt=0"`
}

func (in Input) fields() (Fields, error) {
	if err := validator.Struct(in); err != nil {
		return Fields{}, err
	}
	f := Fields{
		Title:       sanitize.Inline(in.Title),
		Description: sanitize.Text(in.Description),
		Price:       *in.Price,
		Duration:    in.Duration,
	}
	if f.Title == "" {
		return Fields{}, apperror.Validation("title is required")
	}
	return f, nil
}

type Service struct {
	repo         Repository
	candidatures candidatures.Repository
	notifier     Notifier
	tx           database.Transactor
	index        search.ProgramIndex
	store        storage.Store
	limits       storage.Limits
	now          func() time.Time
}

func NewService(repo Repository, cands candidatures.Repository, n Notifier, tx database.Transactor,
	index search.ProgramIndex, store storage.Store, limits storage.Limits) *Service {
	if index == nil {
		index = search.NopProgramIndex{}
	}
	return &Service{
		repo:         repo,
		candidatures: cands,
		notifier:     n,
		tx:           tx,
		index:        index,
		store:        store,
		limits:       limits,
		now:          time.Now,
	}
}

func canManage(actor *models.User, p *models.Program) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Owns(p.UniversityID) && (actor.CanManagePrograms || actor.CanAddProgram)
}

// Create publishes a new program owned by the acting university.
func (s *Service) Create(ctx context.Context, actor *models.User, in Input, files []storage.Upload) (*models.Program, error) {
	if !actor.IsUniversity() || !actor.CanAddProgram {
		return nil, apperror.Forbidden("not allowed to add programs")
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	p := &models.Program{
		Title:        f.Title,
		Description:  f.Description,
		Price:        f.Price,
		Duration:     f.Duration,
		UniversityID: actor.ID,
		Applications: []string{},
		Attachments:  urls,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		storage.Cleanup(ctx, s.store, urls)
		return nil, apperror.Internal("failed to create program", err)
	}
	s.reindex(ctx, p)
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Program, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list programs", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*models.Program, error) {
	id, err := models.ParseID(rawID, "program")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load program", err)
	}
	if p == nil {
		return nil, apperror.NotFound("program not found")
	}
	return p, nil
}

// ListByUniversity returns a university's programs, newest first.
func (s *Service) ListByUniversity(ctx context.Context, rawUniversityID string) ([]*models.Program, error) {
	id, err := models.ParseID(rawUniversityID, "university")
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByUniversity(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to list programs", err)
	}
	return list, nil
}

// Update replaces the scalar fields and appends any new attachments.
func (s *Service) Update(ctx context.Context, actor *models.User, rawID string, in Input, files []storage.Upload) (*models.Program, error) {
	id, err := models.ParseID(rawID, "program")
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		return nil, apperror.Forbidden("not allowed to modify this program")
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	urls, err := storage.SaveAll(ctx, s.store, files, s.limits)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, f, urls)
	if err != nil || updated == nil {
		storage.Cleanup(ctx, s.store, urls)
		if err != nil {
			return nil, apperror.Internal("failed to update program", err)
		}
		return nil, apperror.NotFound("program not found")
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// Delete removes a program. Existing candidatures keep their snapshot.
func (s *Service) Delete(ctx context.Context, actor *models.User, rawID string) error {
	id, err := models.ParseID(rawID, "program")
	if err != nil {
		return err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, p) {
		return apperror.Forbidden("not allowed to delete this program")
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperror.Internal("failed to delete program", err)
	}
	if !ok {
		return apperror.NotFound("program not found")
	}
	if err := s.index.Remove(ctx, id.Hex()); err != nil {
		logger.Warnf("search: %v", err)
	}
	return nil
}

// Apply registers the acting student on a program. The candidature, the applications entry
// and the university's notification are written together or not at all.
func (s *Service) Apply(ctx context.Context, actor *models.User, rawID string) (c *models.Candidature, err error) {
	defer func() { metrics.Candidatures.WithLabelValues(metrics.Outcome(err)).Inc() }()

	if !actor.IsStudent() {
		return nil, apperror.Forbidden("only students can apply")
	}
	if !actor.CanCandidate {
		return nil, apperror.Forbidden("upload your documents before applying")
	}
	id, err := models.ParseID(rawID, "program")
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	studentID := actor.ID.Hex()
	if p.HasApplicant(studentID) {
		return nil, apperror.Conflict("already applied")
	}

	now := s.now().UTC()
	cand := models.NewCandidature(p, actor.ID, now)
	note := &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    p.UniversityID,
		Title:     "New application",
		Content:   fmt.Sprintf("%s applied to %s", actor.Name, p.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.Run(ctx,
		database.Step{
			Name: "insert candidature",
			Do:   func(ctx context.Context) error { return s.candidatures.Create(ctx, cand) },
			Undo: func(ctx context.Context) error { return s.candidatures.Delete(ctx, cand.ID) },
		},
		database.Step{
			Name: "append applicant",
			Do: func(ctx context.Context) error {
				added, err := s.repo.AddApplicant(ctx, p.ID, studentID)
				if err != nil {
					return err
				}
				if !added {
					return errAlreadyApplied
				}
				return nil
			},
			Undo: func(ctx context.Context) error { return s.repo.RemoveApplicant(ctx, p.ID, studentID) },
		},
		database.Step{
			Name: "insert notification",
			Do:   func(ctx context.Context) error { return s.notifier.Create(ctx, note) },
			Undo: func(ctx context.Context) error { return s.notifier.Delete(ctx, note.ID) },
		},
	)
	if err != nil {
		if errors.Is(err, ErrProgramGone) {
			return nil, apperror.NotFound("program not found")
		}
		if errors.Is(err, errAlreadyApplied) || errors.Is(err, candidatures.ErrDuplicate) || database.IsDuplicateKey(err) {
			return nil, apperror.Conflict("already applied")
		}
		return nil, apperror.Internal("failed to apply", err)
	}

	s.notifier.Publish(ctx, note)
	logger.Infow("candidature created", logger.Fields{"program": p.ID.Hex(), "student": studentID, "candidature": cand.ID.Hex()})
	cand.University = p.University
	return cand, nil
}

// Search returns programs matching q, best match first.
func (s *Service) Search(ctx context.Context, q string) ([]*models.Program, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("query is required")
	}
	ids, err := s.index.Search(ctx, q, searchLimit)
	if errors.Is(err, search.ErrDisabled) {
		list, err := s.repo.SearchTitle(ctx, q, searchLimit)
		if err != nil {
			return nil, apperror.Internal("failed to search programs", err)
		}
		return list, nil
	}
	if err != nil {
		return nil, apperror.Internal("failed to search programs", err)
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, raw := range ids {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*models.Program{}, nil
	}
	found, err := s.repo.ListByIDs(ctx, oids)
	if err != nil {
		return nil, apperror.Internal("failed to load programs", err)
	}
	byID := make(map[primitive.ObjectID]*models.Program, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*models.Program, 0, len(found))
	for _, id := range oids {
		// the index may briefly reference deleted programs
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) reindex(ctx context.Context, p *models.Program) {
	if err := s.index.Index(ctx, p); err != nil {
		logger.Warnf("search: %v", err)
	}
}
