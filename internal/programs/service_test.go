package programs

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/internal/notifications"
	"github.com/campusnet/campusnet/backend/go-services/internal/search"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	svc   *Service
	repo  *MemoryRepository
	cands *candidatures.MemoryRepository
	notes *notifications.MemoryRepository
	index *fakeIndex
	uni   *models.User
}

// fakeIndex records indexed ids and answers searches from a fixed list.
type fakeIndex struct {
	mu      sync.Mutex
	indexed map[string]string
	hits    []string
	err     error
}

func (f *fakeIndex) Index(_ context.Context, p *models.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID.Hex()] = p.Title
	return f.err
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	return f.err
}

func (f *fakeIndex) Search(context.Context, string, int) ([]string, error) {
	return f.hits, f.err
}

func price(v float64) *float64 { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:5000/uploads/")
	require.NoError(t, err)
	repo := NewMemoryRepository()
	cands := candidatures.NewMemoryRepository()
	notes := notifications.NewMemoryRepository()
	idx := &fakeIndex{indexed: map[string]string{}}
	svc := NewService(repo, cands, notifications.NewService(notes, nil), database.CompensatingTransactor{},
		idx, store, storage.Limits{MaxFiles: 5})

	uni := &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeUniversity, Name: "Université de Lyon"}
	uni.CanAddProgram = true
	repo.Summaries[uni.ID] = &models.UserSummary{ID: uni.ID, Name: uni.Name, Address: &models.Address{City: "Lyon"}}
	return &fixture{svc: svc, repo: repo, cands: cands, notes: notes, index: idx, uni: uni}
}

func (f *fixture) program(t *testing.T, title string) *models.Program {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.uni, Input{Title: title, Description: "desc", Price: price(1000), Duration: 24}, nil)
	require.NoError(t, err)
	return p
}

func student(canCandidate bool) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeStudent, Name: "Awa", CanCandidate: canCandidate}
}

func file(name string) storage.Upload {
	return storage.Upload{Name: name, Size: 1, Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil }}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.uni, Input{Title: "<b>MSc</b> Data", Description: "<script>x</script>Two years", Price: price(0), Duration: 24}, []storage.Upload{file("brochure.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "MSc Data", p.Title)
	assert.Equal(t, "Two years", p.Description)
	assert.Empty(t, p.Applications)
	assert.Len(t, p.Attachments, 1)
	assert.Equal(t, "MSc Data", f.index.indexed[p.ID.Hex()])

	got, err := f.svc.Get(ctx, p.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "Université de Lyon", got.University.Name)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unverified := *f.uni
	unverified.CanAddProgram = false
	_, err := f.svc.Create(ctx, &unverified, Input{Title: "x", Price: price(1), Duration: 1}, nil)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = f.svc.Create(ctx, student(true), Input{Title: "x", Price: price(1), Duration: 1}, nil)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	for name, in := range map[string]Input{
		"no title":       {Price: price(1), Duration: 1},
		"markup title":   {Title: "<img src=x>", Price: price(1), Duration: 1},
		"no price":       {Title: "x", Duration: 1},
		"negative price": {Title: "x", Price: price(-1), Duration: 1},
		"no duration":    {Title: "x", Price: price(1)},
	} {
		_, err := f.svc.Create(ctx, f.uni, in, nil)
		assert.True(t, errors.Is(err, apperror.ErrValidation), name)
	}

	list, _ := f.svc.List(ctx)
	assert.Empty(t, list)
}

func TestUpdate_ReplacesFieldsAndAppendsAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Create(ctx, f.uni, Input{Title: "Old", Price: price(1), Duration: 1}, []storage.Upload{file("a.pdf")})
	require.NoError(t, err)

	up, err := f.svc.Update(ctx, f.uni, p.ID.Hex(), Input{Title: "New", Price: price(2), Duration: 3}, []storage.Upload{file("b.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "New", up.Title)
	assert.Equal(t, 2.0, up.Price)
	require.Len(t, up.Attachments, 2)
	assert.True(t, strings.HasSuffix(up.Attachments[0], "a.pdf"))
	assert.True(t, strings.HasSuffix(up.Attachments[1], "b.pdf"))
	assert.Equal(t, "New", f.index.indexed[p.ID.Hex()])

	other := &models.User{ID: primitive.NewObjectID(), Type: models.UserTypeUniversity}
	other.CanAddProgram = true
	_, err = f.svc.Update(ctx, other, p.ID.Hex(), Input{Title: "Hijack", Price: price(1), Duration: 1}, nil)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	_, err = f.svc.Update(ctx, f.uni, primitive.NewObjectID().Hex(), Input{Title: "x", Price: price(1), Duration: 1}, nil)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDelete_KeepsCandidatureSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MBA")
	s := student(true)
	_, err := f.svc.Apply(ctx, s, p.ID.Hex())
	require.NoError(t, err)

	require.True(t, errors.Is(f.svc.Delete(ctx, s, p.ID.Hex()), apperror.ErrForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.uni, p.ID.Hex()))
	_, err = f.svc.Get(ctx, p.ID.Hex())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.NotContains(t, f.index.indexed, p.ID.Hex())

	list, _ := f.cands.ListByStudent(ctx, s.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "MBA", list[0].Title)
}

func TestListByUniversity_NewestFirst(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"first", "second", "third"} {
		f.program(t, title)
	}

	list, err := f.svc.ListByUniversity(context.Background(), f.uni.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.False(t, list[0].CreatedAt.Before(list[2].CreatedAt))

	_, err = f.svc.ListByUniversity(context.Background(), "zzz")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestApply_CreatesCandidatureApplicationAndNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MSc Robotics")
	s := student(true)

	c, err := f.svc.Apply(ctx, s, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Statut)
	assert.Equal(t, "MSc Robotics", c.Title)
	assert.Equal(t, 1000.0, c.Price)
	assert.Equal(t, 24, c.Duration)
	assert.Equal(t, f.uni.ID, c.UniversityID)

	stored, _ := f.repo.Get(ctx, p.ID)
	assert.Equal(t, []string{s.ID.Hex()}, stored.Applications)
	notes, _ := f.notes.ListByUser(ctx, f.uni.ID)
	require.Len(t, notes, 1)
}

func TestApply_TwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MSc")
	s := student(true)

	_, err := f.svc.Apply(ctx, s, p.ID.Hex())
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, s, p.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrConflict))

	stored, _ := f.repo.Get(ctx, p.ID)
	assert.Equal(t, []string{s.ID.Hex()}, stored.Applications)
	assert.Equal(t, 1, f.cands.Count())
	assert.Equal(t, 1, f.notes.Count())
}

func TestApply_ConcurrentAppliesProduceOneCandidature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MSc")
	s := student(true)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Apply(ctx, s, p.ID.Hex())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, apperror.ErrConflict), err)
	}
	assert.Equal(t, 1, ok)
	stored, _ := f.repo.Get(ctx, p.ID)
	assert.Len(t, stored.Applications, 1)
	assert.Equal(t, 1, f.cands.Count())
	assert.Equal(t, 1, f.notes.Count())
}

func TestApply_FailedNotificationLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MSc")
	s := student(true)

	f.notes.FailCreate = errors.New("write conflict")
	_, err := f.svc.Apply(ctx, s, p.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrInternal))

	stored, _ := f.repo.Get(ctx, p.ID)
	assert.Empty(t, stored.Applications)
	assert.Equal(t, 0, f.cands.Count())
	assert.Equal(t, 0, f.notes.Count())

	// a later attempt succeeds once the store recovers
	f.notes.FailCreate = nil
	_, err = f.svc.Apply(ctx, s, p.ID.Hex())
	require.NoError(t, err)
}

func TestApply_FailedApplicantWriteRemovesCandidature(t *testing.T) {
	f := newFixture(t)
	p := f.program(t, "MSc")
	f.repo.FailAddApplicant = errors.New("network")

	_, err := f.svc.Apply(context.Background(), student(true), p.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrInternal))
	assert.Equal(t, 0, f.cands.Count())
	assert.Equal(t, 0, f.notes.Count())
}

// vanishingRepository deletes a program right after handing it out.
type vanishingRepository struct {
	*MemoryRepository
}

func (r vanishingRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Program, error) {
	p, err := r.MemoryRepository.Get(ctx, id)
	if p != nil {
		_, _ = r.MemoryRepository.Delete(ctx, id)
	}
	return p, err
}

func TestApply_ProgramDeletedMidwayIsNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.program(t, "MSc")
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:5000/uploads/")
	require.NoError(t, err)
	svc := NewService(vanishingRepository{f.repo}, f.cands, notifications.NewService(f.notes, nil),
		database.CompensatingTransactor{}, f.index, store, storage.Limits{MaxFiles: 5})

	_, err = svc.Apply(context.Background(), student(true), p.ID.Hex())
	require.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	assert.Equal(t, 0, f.cands.Count())
	assert.Equal(t, 0, f.notes.Count())
}

func TestApply_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.program(t, "MSc")

	_, err := f.svc.Apply(ctx, student(false), p.ID.Hex())
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = f.svc.Apply(ctx, f.uni, p.ID.Hex())
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	_, err = f.svc.Apply(ctx, student(true), primitive.NewObjectID().Hex())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = f.svc.Apply(ctx, student(true), "not-an-id")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.program(t, "Data Science")
	b := f.program(t, "Data Engineering")

	_, err := f.svc.Search(ctx, "  ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// ranked hits come back in index order, unknown ids are skipped
	f.index.hits = []string{b.ID.Hex(), primitive.NewObjectID().Hex(), a.ID.Hex()}
	list, err := f.svc.Search(ctx, "data")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	// without a search backend the title scan is used
	f.index.err = search.ErrDisabled
	list, err = f.svc.Search(ctx, "engineering")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}
