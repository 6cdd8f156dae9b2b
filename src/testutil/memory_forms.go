package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"feedback-api/src/models"
	"feedback-api/src/repository"

	"github.com/juju/errors"
)

// FormRepository is an in-memory repository.FormRepository. Every method
// holds one lock, so activation is atomic like the store transaction.
type FormRepository struct {
	mu    sync.Mutex
	forms map[string]models.Form
	seq   map[string]int

	// Err, when set, is returned by every call.
	Err error
}

var _ repository.FormRepository = (*FormRepository)(nil)

func NewFormRepository() *FormRepository {
	return &FormRepository{forms: map[string]models.Form{}, seq: map[string]int{}}
}

func matchForm(f models.Form, filter repository.FormFilter) bool {
	if filter.PackageName != "" && f.PackageName != filter.PackageName {
		return false
	}
	if filter.Title != "" && !strings.Contains(strings.ToLower(f.Title), strings.ToLower(filter.Title)) {
		return false
	}
	if filter.FormType != "" && f.FormType != filter.FormType {
		return false
	}
	if filter.Active != nil && f.IsActive != *filter.Active {
		return false
	}
	return true
}

func (r *FormRepository) deactivateSiblings(packageName, exceptID string, at time.Time) int64 {
	var n int64
	for id, f := range r.forms {
		if id != exceptID && f.PackageName == packageName && f.IsActive {
			f.IsActive = false
			f.UpdatedAt = at
			r.forms[id] = f
			n++
		}
	}
	return n
}

func (r *FormRepository) Insert(_ context.Context, form *models.Form) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	if _, ok := r.forms[form.ID]; ok {
		return 0, errors.AlreadyExistsf("form %q", form.ID)
	}
	var n int64
	if form.IsActive {
		n = r.deactivateSiblings(form.PackageName, form.ID, form.CreatedAt)
	}
	r.forms[form.ID] = *form
	r.seq[form.ID] = len(r.seq)
	return n, nil
}

func (r *FormRepository) FindByID(_ context.Context, id string) (*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	f, ok := r.forms[id]
	if !ok {
		return nil, errors.NotFoundf("form %q", id)
	}
	return &f, nil
}

func (r *FormRepository) FindActive(_ context.Context, packageName string) (*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, f := range r.forms {
		if f.PackageName == packageName && f.IsActive {
			return &f, nil
		}
	}
	return nil, errors.NotFoundf("active form for package %q", packageName)
}

func (r *FormRepository) Find(_ context.Context, filter repository.FormFilter) ([]models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []models.Form{}
	for _, f := range r.forms {
		if matchForm(f, filter) {
			out = append(out, f)
		}
	}
	// newest first, insertion order breaks ties
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out, nil
}

func (r *FormRepository) Count(ctx context.Context, filter repository.FormFilter) (int64, error) {
	forms, err := r.Find(ctx, filter)
	return int64(len(forms)), err
}

func (r *FormRepository) DistinctPackages(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, f := range r.forms {
		if !seen[f.PackageName] {
			seen[f.PackageName] = true
			out = append(out, f.PackageName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *FormRepository) SetActive(_ context.Context, id string, active bool, at time.Time) (*models.Form, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}
	f, ok := r.forms[id]
	if !ok {
		return nil, 0, errors.NotFoundf("form %q", id)
	}
	var n int64
	if active {
		n = r.deactivateSiblings(f.PackageName, id, at)
	}
	f.IsActive = active
	f.UpdatedAt = at
	r.forms[id] = f
	return &f, n, nil
}

// ActiveCount reports how many forms of the package are active.
func (r *FormRepository) ActiveCount(packageName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.forms {
		if f.PackageName == packageName && f.IsActive {
			n++
		}
	}
	return n
}
