package feedback

import (
	"context"
	"time"

	"feedback-api/src/cache"
	"feedback-api/src/metrics"
	"feedback-api/src/models"
	"feedback-api/src/repository"
	"feedback-api/src/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.services.feedback")

// DefaultRecentLimit is used by Recent when the caller gives no limit.
const DefaultRecentLimit = 10

// FormLookup resolves the form a submission points at.
type FormLookup interface {
	GetForm(ctx context.Context, id string) (*models.Form, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Tasks    TaskEnqueuer
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type Service struct {
	repo    repository.FeedbackRepository
	forms   FormLookup
	cache   cache.Cache
	ttl     time.Duration
	tasks   TaskEnqueuer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.FeedbackRepository, forms FormLookup, opts Options) *Service {
	s := &Service{
		repo:    repo,
		forms:   forms,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		tasks:   opts.Tasks,
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

// afterWrite moves the package's stats to a new generation, drops the old
// entries and, when a worker queue is configured, asks it to rebuild them.
// It must run after the store write.
func (s *Service) afterWrite(ctx context.Context, packageName, formID string) {
	if err := s.cache.Bump(ctx, cache.StatsScope(packageName)); err != nil {
		logger.Warningf("bumping stats generation for %q: %v", packageName, err)
	}
	s.cache.DeletePrefix(ctx, cache.StatsPrefix(packageName))
	if s.tasks == nil {
		return
	}
	task, err := NewWarmStatsTask(packageName, formID)
	if err != nil {
		logger.Warningf("building warm-stats task for %q: %v", packageName, err)
		return
	}
	if _, err := s.tasks.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)); err != nil {
		logger.Warningf("enqueue warm-stats for %q: %v", packageName, err)
	}
}

// validateSubmission ตรวจ field ตามชนิดของ form
func validateSubmission(req *models.SubmitFeedbackRequest, form *models.Form) error {
	if req.PackageName != form.PackageName {
		return errors.NotValidf("package_name %q for form %q", req.PackageName, form.ID)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return errors.NewNotValid(nil, "rating must be an integer between 1 and 5")
	}
	if form.FormType.WantsRating() && req.Rating == nil {
		return errors.NewNotValid(nil, "rating is required for "+string(form.FormType)+" forms")
	}
	if form.FormType.WantsMessage() && req.Message == "" {
		return errors.NewNotValid(nil, "message is required for "+string(form.FormType)+" forms")
	}
	return nil
}

// Submit stores one feedback entry against an active form.
func (s *Service) Submit(ctx context.Context, req *models.SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	form, err := s.forms.GetForm(ctx, req.FormID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !form.IsActive {
		return nil, errors.NotFoundf("active form %q", req.FormID)
	}
	if err := validateSubmission(req, form); err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		ID:          uuid.NewString(),
		FormID:      form.ID,
		PackageName: form.PackageName,
		UserID:      req.UserID,
		Message:     req.Message,
		AppVersion:  req.AppVersion,
		DeviceInfo:  req.DeviceInfo,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if form.FormType.WantsRating() {
		rating := *req.Rating
		fb.Rating = &rating
	}

	if err := s.repo.Insert(ctx, fb); err != nil {
		return nil, errors.Trace(err)
	}
	s.afterWrite(ctx, fb.PackageName, fb.FormID)
	s.metrics.FeedbackSubmitted(form.FormType)

	logger.Infof("feedback %s stored for package %q form %s", fb.ID, fb.PackageName, fb.FormID)
	return fb, nil
}

// ListByPackage returns the package's feedback, oldest first.
func (s *Service) ListByPackage(ctx context.Context, packageName, formID string) ([]models.Feedback, error) {
	items, err := s.repo.Find(ctx, repository.FeedbackFilter{PackageName: packageName, FormID: formID}, repository.FindOptions{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(items) == 0 {
		return nil, notFoundFor(packageName, formID)
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, packageName, id string) (*models.Feedback, error) {
	fb, err := s.repo.FindByID(ctx, packageName, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return fb, nil
}

// requirePackage is the package-level not-found check shared by the
// listings that answer an empty list for an existing package.
func (s *Service) requirePackage(ctx context.Context, packageName string) error {
	ok, err := s.repo.Exists(ctx, packageName)
	if err != nil {
		return errors.Trace(err)
	}
	if !ok {
		return errors.NotFoundf("feedback for package %q", packageName)
	}
	return nil
}

func (s *Service) ListByUser(ctx context.Context, packageName, userID string) ([]models.Feedback, error) {
	if err := s.requirePackage(ctx, packageName); err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, repository.FeedbackFilter{PackageName: packageName, UserID: userID}, repository.FindOptions{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

// Stats reads through the cache. Entries are keyed by the package's stats
// generation, which every write to the package moves on.
func (s *Service) Stats(ctx context.Context, packageName, formID string) (*models.FeedbackStats, error) {
	gen, err := s.cache.Generation(ctx, cache.StatsScope(packageName))
	if err != nil {
		return s.computeStats(ctx, packageName, formID)
	}
	var stats models.FeedbackStats
	if s.cache.Get(ctx, cache.StatsKey(packageName, formID, gen), &stats) {
		return &stats, nil
	}
	return s.refreshStats(ctx, packageName, formID, gen)
}

// RefreshStats recomputes the stats from the store and caches them.
func (s *Service) RefreshStats(ctx context.Context, packageName, formID string) (*models.FeedbackStats, error) {
	gen, err := s.cache.Generation(ctx, cache.StatsScope(packageName))
	if err != nil {
		return s.computeStats(ctx, packageName, formID)
	}
	return s.refreshStats(ctx, packageName, formID, gen)
}

// refreshStats stores under gen, read before the store. A write that lands
// meanwhile bumps the generation, so the entry is never served.
func (s *Service) refreshStats(ctx context.Context, packageName, formID string, gen int64) (*models.FeedbackStats, error) {
	stats, err := s.computeStats(ctx, packageName, formID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cache.StatsKey(packageName, formID, gen), stats, s.ttl)
	return stats, nil
}

func (s *Service) computeStats(ctx context.Context, packageName, formID string) (*models.FeedbackStats, error) {
	summary, err := s.repo.RatingSummary(ctx, repository.FeedbackFilter{PackageName: packageName, FormID: formID})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if summary.Rated == 0 {
		return nil, errors.NotFoundf("rated feedback for package %q", packageName)
	}
	stats := summary.Stats()
	return &stats, nil
}

func (s *Service) AverageRating(ctx context.Context, packageName, formID string) (*models.AverageRating, error) {
	stats, err := s.Stats(ctx, packageName, formID)
	if err != nil {
		return nil, err
	}
	return &models.AverageRating{AverageRating: stats.AverageRating}, nil
}

// SearchMessages matches message as a case-insensitive substring. An empty
// query returns every entry of the package.
func (s *Service) SearchMessages(ctx context.Context, packageName, query string) ([]models.Feedback, error) {
	if err := s.requirePackage(ctx, packageName); err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, repository.FeedbackFilter{PackageName: packageName, MessageQuery: query}, repository.FindOptions{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

// Recent returns at most limit entries, newest first.
func (s *Service) Recent(ctx context.Context, packageName, formID string, limit int) ([]models.Feedback, error) {
	if limit == 0 {
		limit = DefaultRecentLimit
	}
	if limit < 0 {
		return nil, errors.NotValidf("limit %d", limit)
	}
	items, err := s.repo.Find(ctx,
		repository.FeedbackFilter{PackageName: packageName, FormID: formID},
		repository.FindOptions{NewestFirst: true, Limit: int64(limit)},
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(items) == 0 {
		return nil, notFoundFor(packageName, formID)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, packageName, id string) (*models.DeleteResult, error) {
	n, err := s.repo.DeleteByID(ctx, packageName, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if n == 0 {
		return nil, errors.NotFoundf("feedback %q in package %q", id, packageName)
	}
	s.afterWrite(ctx, packageName, "")
	s.metrics.FeedbackDeleted("single", n)
	logger.Infof("feedback %s deleted from package %q", id, packageName)
	return &models.DeleteResult{Message: "Feedback deleted successfully", DeletedCount: n}, nil
}

func (s *Service) DeleteByForm(ctx context.Context, packageName, formID string) (*models.DeleteResult, error) {
	if formID == "" {
		return nil, errors.NotValidf("empty form id")
	}
	n, err := s.repo.DeleteMany(ctx, repository.FeedbackFilter{PackageName: packageName, FormID: formID})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if n == 0 {
		return nil, notFoundFor(packageName, formID)
	}
	s.afterWrite(ctx, packageName, formID)
	s.metrics.FeedbackDeleted("form", n)
	logger.Infof("deleted %d feedback entries for form %s in package %q", n, formID, packageName)
	return &models.DeleteResult{
		Message:      "Deleted feedback entries for form '" + formID + "'",
		DeletedCount: n,
	}, nil
}

func (s *Service) DeleteByPackage(ctx context.Context, packageName string) (*models.DeleteResult, error) {
	n, err := s.repo.DeleteMany(ctx, repository.FeedbackFilter{PackageName: packageName})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if n == 0 {
		return nil, notFoundFor(packageName, "")
	}
	s.afterWrite(ctx, packageName, "")
	s.metrics.FeedbackDeleted("package", n)
	logger.Infof("deleted %d feedback entries in package %q", n, packageName)
	return &models.DeleteResult{Message: "Deleted feedback entries", DeletedCount: n}, nil
}

func notFoundFor(packageName, formID string) error {
	if formID != "" {
		return errors.NotFoundf("feedback for form %q in package %q", formID, packageName)
	}
	return errors.NotFoundf("feedback for package %q", packageName)
}
