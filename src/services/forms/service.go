package forms

import (
	"context"
	"time"

	"feedback-api/src/cache"
	"feedback-api/src/metrics"
	"feedback-api/src/models"
	"feedback-api/src/repository"
	"feedback-api/src/utils"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.services.forms")

// Options carries the optional collaborators of the Service.
type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type Service struct {
	repo    repository.FormRepository
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.FormRepository, opts Options) *Service {
	s := &Service{
		repo:    repo,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.cache == nil {
		s.cache = cache.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// timestamp ตัดเหลือระดับ millisecond ให้ตรงกับที่ MongoDB เก็บ
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// invalidate runs after a store write. Bumping the generation first makes
// entries filled by in-flight readers unreachable; the delete only frees them.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx, cache.FormsScope); err != nil {
		logger.Warningf("bumping forms cache generation: %v", err)
	}
	s.cache.DeletePrefix(ctx, cache.FormsPrefix)
}

// generation must be read before the store. It reports false when the
// cache should be bypassed.
func (s *Service) generation(ctx context.Context) (int64, bool) {
	gen, err := s.cache.Generation(ctx, cache.FormsScope)
	return gen, err == nil
}

// CreateForm validates the request and stores a new form. A form created
// active takes over from the package's current active form.
func (s *Service) CreateForm(ctx context.Context, req *models.CreateFormRequest) (*models.Form, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.timestamp()
	form := &models.Form{
		ID:          uuid.NewString(),
		PackageName: req.PackageName,
		Title:       req.Title,
		Description: req.Description,
		FormType:    req.FormType,
		IsActive:    req.IsActive != nil && *req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	deactivated, err := s.repo.Insert(ctx, form)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.invalidate(ctx)
	s.metrics.FormCreated(form.FormType)

	logger.Infof("form %s created for package %q (type=%s active=%t, deactivated %d)",
		form.ID, form.PackageName, form.FormType, form.IsActive, deactivated)
	return form, nil
}

// ListPackages returns every distinct package name that owns a form.
func (s *Service) ListPackages(ctx context.Context) ([]string, error) {
	gen, cacheable := s.generation(ctx)
	var packages []string
	if cacheable && s.cache.Get(ctx, cache.PackagesKey(gen), &packages) {
		return packages, nil
	}

	packages, err := s.repo.DistinctPackages(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cacheable {
		s.cache.Set(ctx, cache.PackagesKey(gen), packages, s.ttl)
	}
	return packages, nil
}

func (s *Service) GetActiveForm(ctx context.Context, packageName string) (*models.Form, error) {
	gen, cacheable := s.generation(ctx)
	var form models.Form
	if cacheable && s.cache.Get(ctx, cache.ActiveFormKey(gen, packageName), &form) {
		return &form, nil
	}

	active, err := s.repo.FindActive(ctx, packageName)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			logger.Debugf("no active form for package %q", packageName)
		}
		return nil, errors.Trace(err)
	}
	if cacheable {
		s.cache.Set(ctx, cache.ActiveFormKey(gen, packageName), active, s.ttl)
	}
	return active, nil
}

// GetForm looks a form up by id. It always reads the store so submissions
// see the current is_active flag.
func (s *Service) GetForm(ctx context.Context, id string) (*models.Form, error) {
	if id == "" {
		return nil, errors.NotValidf("empty form id")
	}
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return form, nil
}

// ListForms returns the package's forms. It is not found only when the
// package has no forms at all; a filter that matches nothing yields an
// empty list.
func (s *Service) ListForms(ctx context.Context, packageName string, active *bool) ([]models.Form, error) {
	forms, err := s.repo.Find(ctx, repository.FormFilter{PackageName: packageName, Active: active})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(forms) > 0 {
		return forms, nil
	}
	if active == nil {
		return nil, errors.NotFoundf("forms for package %q", packageName)
	}

	total, err := s.repo.Count(ctx, repository.FormFilter{PackageName: packageName})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if total == 0 {
		return nil, errors.NotFoundf("forms for package %q", packageName)
	}
	return forms, nil
}

func (s *Service) ListAllForms(ctx context.Context, active *bool) ([]models.Form, error) {
	forms, err := s.repo.Find(ctx, repository.FormFilter{Active: active})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(forms) == 0 {
		return nil, errors.NotFoundf("forms")
	}
	return forms, nil
}

// ActivateForm sets is_active on one form. Turning a form on turns every
// other form of its package off in the same store transaction.
func (s *Service) ActivateForm(ctx context.Context, id string, req *models.ActivateFormRequest) (*models.ActivateFormResult, error) {
	if req == nil || req.IsActive == nil {
		return nil, errors.NotValidf("missing is_active")
	}
	if id == "" {
		return nil, errors.NotValidf("empty form id")
	}

	form, deactivated, err := s.repo.SetActive(ctx, id, *req.IsActive, s.timestamp())
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			logger.Debugf("activate: form %q not found", id)
		}
		return nil, errors.Trace(err)
	}
	s.invalidate(ctx)
	s.metrics.FormActivated(form.IsActive)

	logger.Infof("form %s updated, is_active=%t, deactivated %d other form(s)", form.ID, form.IsActive, deactivated)
	return &models.ActivateFormResult{
		Message:               "Form status updated successfully.",
		ID:                    form.ID,
		IsActive:              form.IsActive,
		UpdatedAt:             form.UpdatedAt,
		DeactivatedFormsCount: deactivated,
	}, nil
}

// SearchForms applies every supplied filter. Nothing matching is an empty
// list, not an error.
func (s *Service) SearchForms(ctx context.Context, params models.FormSearchParams) ([]models.Form, error) {
	if params.FormType != "" && !params.FormType.Valid() {
		return nil, errors.NotValidf("form_type %q", params.FormType)
	}
	forms, err := s.repo.Find(ctx, repository.FormFilter{
		PackageName: params.PackageName,
		Title:       params.Title,
		FormType:    params.FormType,
		Active:      params.Active,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return forms, nil
}
