package forms

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedback-api/src/cache"
	"feedback-api/src/models"
	"feedback-api/src/repository"
	"feedback-api/src/testutil"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func boolPtr(b bool) *bool { return &b }

func newTestService(t *testing.T) (*Service, *testutil.FormRepository) {
	t.Helper()
	repo := testutil.NewFormRepository()
	clock := testutil.NewClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	return NewService(repo, Options{Now: clock.Now}), repo
}

func formsGeneration(t *testing.T, c *testutil.MapCache) int64 {
	t.Helper()
	gen, err := c.Generation(context.Background(), cache.FormsScope)
	require.NoError(t, err)
	return gen
}

// pausingFormRepo parks the next FindActive or DistinctPackages call, after
// it has read the store, until release is closed.
type pausingFormRepo struct {
	*testutil.FormRepository
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingFormRepo() *pausingFormRepo {
	return &pausingFormRepo{
		FormRepository: testutil.NewFormRepository(),
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (r *pausingFormRepo) pause() {
	if r.armed.CompareAndSwap(true, false) {
		close(r.read)
		<-r.release
	}
}

func (r *pausingFormRepo) FindActive(ctx context.Context, packageName string) (*models.Form, error) {
	form, err := r.FormRepository.FindActive(ctx, packageName)
	r.pause()
	return form, err
}

func (r *pausingFormRepo) DistinctPackages(ctx context.Context) ([]string, error) {
	packages, err := r.FormRepository.DistinctPackages(ctx)
	r.pause()
	return packages, err
}

func mustCreate(t *testing.T, s *Service, pkg, title string, typ models.FormType, active bool) *models.Form {
	t.Helper()
	form, err := s.CreateForm(context.Background(), &models.CreateFormRequest{
		PackageName: pkg,
		Title:       title,
		FormType:    typ,
		IsActive:    boolPtr(active),
	})
	require.NoError(t, err)
	return form
}

func TestCreateFormValidation(t *testing.T) {
	suite := testutil.NewSuiteResult("Create Form Validation")
	defer suite.Summary(t)

	s, repo := newTestService(t)
	ctx := context.Background()

	cases := map[string]models.CreateFormRequest{
		"missing package": {Title: "t", FormType: models.FormTypeRating},
		"missing title":   {PackageName: "com.example.app", FormType: models.FormTypeRating},
		"missing type":    {PackageName: "com.example.app", Title: "t"},
		"unknown type":    {PackageName: "com.example.app", Title: "t", FormType: "stars"},
	}
	for name, req := range cases {
		req := req
		suite.Run(t, name, func(t *testing.T) {
			_, err := s.CreateForm(ctx, &req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
		})
	}

	count, err := repo.Count(ctx, repository.FormFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateFormDefaults(t *testing.T) {
	s, _ := newTestService(t)

	form, err := s.CreateForm(context.Background(), &models.CreateFormRequest{
		PackageName: "com.example.app",
		Title:       "How are we doing?",
		Description: "Shown after checkout",
		FormType:    models.FormTypeRatingText,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, form.ID)
	assert.False(t, form.IsActive)
	assert.Equal(t, "Shown after checkout", form.Description)
	assert.Equal(t, models.FormTypeRatingText, form.FormType)
	assert.False(t, form.CreatedAt.IsZero())
	assert.Equal(t, form.CreatedAt, form.UpdatedAt)
}

func TestCreateActiveFormKeepsSingleActive(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	first := mustCreate(t, s, "com.example.app", "first", models.FormTypeRating, true)
	second := mustCreate(t, s, "com.example.app", "second", models.FormTypeRating, true)

	assert.Equal(t, 1, repo.ActiveCount("com.example.app"))
	active, err := s.GetActiveForm(ctx, "com.example.app")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := s.GetForm(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
}

func TestActivateSwitchesActiveForm(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "com.example.app", "A", models.FormTypeRating, false)
	b := mustCreate(t, s, "com.example.app", "B", models.FormTypeRating, true)
	c := mustCreate(t, s, "com.example.app", "C", models.FormTypeFreeText, false)
	other := mustCreate(t, s, "com.other.app", "Other", models.FormTypeRating, true)

	res, err := s.ActivateForm(ctx, a.ID, &models.ActivateFormRequest{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.ID)
	assert.True(t, res.IsActive)
	assert.EqualValues(t, 1, res.DeactivatedFormsCount)

	gotA, _ := s.GetForm(ctx, a.ID)
	gotB, _ := s.GetForm(ctx, b.ID)
	gotC, _ := s.GetForm(ctx, c.ID)
	gotOther, _ := s.GetForm(ctx, other.ID)
	assert.True(t, gotA.IsActive)
	assert.False(t, gotB.IsActive)
	assert.Equal(t, *c, *gotC, "untouched sibling must be unchanged")
	assert.True(t, gotOther.IsActive, "other package must be unchanged")
	assert.Equal(t, 1, repo.ActiveCount("com.example.app"))
}

func TestDeactivateTouchesNoOtherForm(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "com.example.app", "A", models.FormTypeRating, true)
	b := mustCreate(t, s, "com.example.app", "B", models.FormTypeRating, false)

	res, err := s.ActivateForm(ctx, b.ID, &models.ActivateFormRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.Zero(t, res.DeactivatedFormsCount)

	gotA, _ := s.GetForm(ctx, a.ID)
	assert.Equal(t, *a, *gotA)
}

func TestActivateErrors(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	form := mustCreate(t, s, "com.example.app", "A", models.FormTypeRating, false)

	_, err := s.ActivateForm(ctx, form.ID, &models.ActivateFormRequest{})
	assert.True(t, errors.Is(err, errors.NotValid), "missing flag: %v", err)

	_, err = s.ActivateForm(ctx, form.ID, nil)
	assert.True(t, errors.Is(err, errors.NotValid), "nil body: %v", err)

	_, err = s.ActivateForm(ctx, "does-not-exist", &models.ActivateFormRequest{IsActive: boolPtr(true)})
	assert.True(t, errors.Is(err, errors.NotFound), "unknown id: %v", err)
}

func TestConcurrentActivationKeepsAtMostOneActive(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	const pkg = "com.example.race"
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = mustCreate(t, s, pkg, "form", models.FormTypeRating, false).ID
	}

	var violations int32
	stop := make(chan struct{})
	observerDone := make(chan struct{})
	go func() {
		defer close(observerDone)
		for {
			select {
			case <-stop:
				return
			default:
				if repo.ActiveCount(pkg) > 1 {
					atomic.AddInt32(&violations, 1)
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				id := ids[rng.Intn(len(ids))]
				_, err := s.ActivateForm(ctx, id, &models.ActivateFormRequest{IsActive: boolPtr(rng.Intn(4) != 0)})
				assert.NoError(t, err)
			}
		}(int64(w))
	}
	wg.Wait()
	close(stop)
	<-observerDone

	assert.Zero(t, atomic.LoadInt32(&violations))
	assert.LessOrEqual(t, repo.ActiveCount(pkg), 1)
}

func TestListForms(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.ListForms(ctx, "com.unknown", nil)
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = s.ListForms(ctx, "com.unknown", boolPtr(true))
	assert.True(t, errors.Is(err, errors.NotFound))

	active := mustCreate(t, s, "com.example.app", "A", models.FormTypeRating, true)

	all, err := s.ListForms(ctx, "com.example.app", nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	onlyActive, err := s.ListForms(ctx, "com.example.app", boolPtr(true))
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)

	inactive, err := s.ListForms(ctx, "com.example.app", boolPtr(false))
	require.NoError(t, err, "existing package with no match is an empty list")
	assert.Empty(t, inactive)
}

func TestListAllForms(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.ListAllForms(ctx, nil)
	assert.True(t, errors.Is(err, errors.NotFound))

	mustCreate(t, s, "com.one", "A", models.FormTypeRating, true)
	mustCreate(t, s, "com.two", "B", models.FormTypeFreeText, false)

	all, err := s.ListAllForms(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inactive, err := s.ListAllForms(ctx, boolPtr(false))
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "com.two", inactive[0].PackageName)

	s2, _ := newTestService(t)
	mustCreate(t, s2, "com.one", "A", models.FormTypeRating, true)
	_, err = s2.ListAllForms(ctx, boolPtr(false))
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestSearchForms(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	empty, err := s.SearchForms(ctx, models.FormSearchParams{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	mustCreate(t, s, "com.one", "Rate our Checkout", models.FormTypeRating, true)
	mustCreate(t, s, "com.one", "Tell us more", models.FormTypeFreeText, false)
	mustCreate(t, s, "com.two", "checkout survey (beta)", models.FormTypeRatingText, true)

	all, err := s.ListAllForms(ctx, nil)
	require.NoError(t, err)
	unfiltered, err := s.SearchForms(ctx, models.FormSearchParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, all, unfiltered)

	byTitle, err := s.SearchForms(ctx, models.FormSearchParams{Title: "CHECKOUT"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 2)

	literal, err := s.SearchForms(ctx, models.FormSearchParams{Title: "(beta)"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "com.two", literal[0].PackageName)

	combined, err := s.SearchForms(ctx, models.FormSearchParams{
		PackageName: "com.one",
		Title:       "checkout",
		FormType:    models.FormTypeRating,
		Active:      boolPtr(true),
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "Rate our Checkout", combined[0].Title)

	none, err := s.SearchForms(ctx, models.FormSearchParams{PackageName: "com.three"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.SearchForms(ctx, models.FormSearchParams{FormType: "stars"})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestListPackagesAndCacheInvalidation(t *testing.T) {
	repo := testutil.NewFormRepository()
	c := testutil.NewMapCache()
	s := NewService(repo, Options{Cache: c, CacheTTL: time.Minute})
	ctx := context.Background()

	packages, err := s.ListPackages(ctx)
	require.NoError(t, err)
	assert.Empty(t, packages)

	mustCreate(t, s, "com.one", "A", models.FormTypeRating, true)
	mustCreate(t, s, "com.one", "B", models.FormTypeRating, false)
	mustCreate(t, s, "com.two", "C", models.FormTypeRating, false)

	packages, err = s.ListPackages(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"com.one", "com.two"}, packages)
	assert.True(t, c.Has(cache.PackagesKey(formsGeneration(t, c))))

	active, err := s.GetActiveForm(ctx, "com.one")
	require.NoError(t, err)
	gen := formsGeneration(t, c)
	assert.True(t, c.Has(cache.ActiveFormKey(gen, "com.one")))

	others, err := s.ListForms(ctx, "com.one", boolPtr(false))
	require.NoError(t, err)
	require.Len(t, others, 1)
	_, err = s.ActivateForm(ctx, others[0].ID, &models.ActivateFormRequest{IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Greater(t, formsGeneration(t, c), gen)
	assert.False(t, c.Has(cache.ActiveFormKey(gen, "com.one")), "old generation entries are dropped")
	assert.False(t, c.Has(cache.ActiveFormKey(formsGeneration(t, c), "com.one")))

	now, err := s.GetActiveForm(ctx, "com.one")
	require.NoError(t, err)
	assert.NotEqual(t, active.ID, now.ID)
}

func TestGetActiveFormOverlappingActivation(t *testing.T) {
	repo := newPausingFormRepo()
	s := NewService(repo, Options{Cache: testutil.NewMapCache(), CacheTTL: time.Minute})
	ctx := context.Background()

	a := mustCreate(t, s, "com.race", "A", models.FormTypeRating, true)
	b := mustCreate(t, s, "com.race", "B", models.FormTypeRating, false)

	repo.armed.Store(true)
	done := make(chan string, 1)
	go func() {
		form, err := s.GetActiveForm(ctx, "com.race")
		assert.NoError(t, err)
		if form != nil {
			done <- form.ID
			return
		}
		done <- ""
	}()

	<-repo.read
	_, err := s.ActivateForm(ctx, b.ID, &models.ActivateFormRequest{IsActive: boolPtr(true)})
	require.NoError(t, err)
	close(repo.release)
	assert.Equal(t, a.ID, <-done, "the overlapping call answers from what it read")

	for i := 0; i < 2; i++ {
		active, err := s.GetActiveForm(ctx, "com.race")
		require.NoError(t, err)
		assert.Equal(t, b.ID, active.ID)
	}
}

func TestListPackagesOverlappingCreate(t *testing.T) {
	repo := newPausingFormRepo()
	s := NewService(repo, Options{Cache: testutil.NewMapCache(), CacheTTL: time.Minute})
	ctx := context.Background()

	mustCreate(t, s, "com.one", "A", models.FormTypeRating, true)

	repo.armed.Store(true)
	done := make(chan []string, 1)
	go func() {
		packages, err := s.ListPackages(ctx)
		assert.NoError(t, err)
		done <- packages
	}()

	<-repo.read
	mustCreate(t, s, "com.two", "B", models.FormTypeRating, true)
	close(repo.release)
	assert.Equal(t, []string{"com.one"}, <-done)

	packages, err := s.ListPackages(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"com.one", "com.two"}, packages)
}

func TestGetActiveFormNotFound(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.GetActiveForm(ctx, "com.example.app")
	assert.True(t, errors.Is(err, errors.NotFound))

	mustCreate(t, s, "com.example.app", "inactive", models.FormTypeRating, false)
	_, err = s.GetActiveForm(ctx, "com.example.app")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestStoreErrorsPropagate(t *testing.T) {
	s, repo := newTestService(t)
	repo.Err = errors.New("connection refused")

	_, err := s.ListPackages(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.NotFound))
	assert.False(t, errors.Is(err, errors.NotValid))
}
