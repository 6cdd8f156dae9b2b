package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"feedback-api/src/models"
	"feedback-api/src/repository"

	"github.com/juju/errors"
)

// FeedbackRepository is an in-memory repository.FeedbackRepository.
type FeedbackRepository struct {
	mu    sync.Mutex
	items []models.Feedback

	// Err, when set, is returned by every call.
	Err error
}

var _ repository.FeedbackRepository = (*FeedbackRepository)(nil)

func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{}
}

func matchFeedback(fb models.Feedback, f repository.FeedbackFilter) bool {
	if fb.PackageName != f.PackageName {
		return false
	}
	if f.FormID != "" && fb.FormID != f.FormID {
		return false
	}
	if f.UserID != "" && fb.UserID != f.UserID {
		return false
	}
	if f.MessageQuery != "" && !strings.Contains(strings.ToLower(fb.Message), strings.ToLower(f.MessageQuery)) {
		return false
	}
	return true
}

func copyFeedback(fb models.Feedback) models.Feedback {
	if fb.Rating != nil {
		r := *fb.Rating
		fb.Rating = &r
	}
	return fb
}

func (r *FeedbackRepository) Insert(_ context.Context, fb *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.items {
		if existing.ID == fb.ID {
			return errors.AlreadyExistsf("feedback %q", fb.ID)
		}
	}
	r.items = append(r.items, copyFeedback(*fb))
	return nil
}

func (r *FeedbackRepository) FindByID(_ context.Context, packageName, id string) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, fb := range r.items {
		if fb.ID == id && fb.PackageName == packageName {
			out := copyFeedback(fb)
			return &out, nil
		}
	}
	return nil, errors.NotFoundf("feedback %q in package %q", id, packageName)
}

func (r *FeedbackRepository) Find(_ context.Context, filter repository.FeedbackFilter, opts repository.FindOptions) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []models.Feedback{}
	for _, fb := range r.items {
		if matchFeedback(fb, filter) {
			out = append(out, copyFeedback(fb))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if opts.NewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *FeedbackRepository) Exists(_ context.Context, packageName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, fb := range r.items {
		if fb.PackageName == packageName {
			return true, nil
		}
	}
	return false, nil
}

func (r *FeedbackRepository) RatingSummary(_ context.Context, filter repository.FeedbackFilter) (*models.RatingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	summary := &models.RatingSummary{Breakdown: map[int]int64{}}
	for _, fb := range r.items {
		if !matchFeedback(fb, filter) {
			continue
		}
		summary.Total++
		if fb.Rating == nil || *fb.Rating < 1 || *fb.Rating > 5 {
			continue
		}
		summary.Rated++
		summary.Sum += int64(*fb.Rating)
		summary.Breakdown[*fb.Rating]++
	}
	return summary, nil
}

func (r *FeedbackRepository) DeleteByID(_ context.Context, packageName, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	for i, fb := range r.items {
		if fb.ID == id && fb.PackageName == packageName {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *FeedbackRepository) DeleteMany(_ context.Context, filter repository.FeedbackFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	kept := r.items[:0]
	var n int64
	for _, fb := range r.items {
		if matchFeedback(fb, filter) {
			n++
			continue
		}
		kept = append(kept, fb)
	}
	r.items = kept
	return n, nil
}

// Len reports how many entries are stored.
func (r *FeedbackRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
