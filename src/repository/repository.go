// Package repository holds the store boundary for forms and feedback. The
// services only see the interfaces; MongoDB backs them in production.
package repository

import (
	"context"
	"time"

	"feedback-api/src/models"
)

// FormFilter narrows form queries. Zero fields are not applied.
type FormFilter struct {
	PackageName string
	// Title matches as a case-insensitive literal substring.
	Title    string
	FormType models.FormType
	Active   *bool
}

type FormRepository interface {
	// Insert stores a new form. When form.IsActive is set, every other active
	// form of the package is deactivated in the same atomic unit and the
	// number of deactivated forms is returned.
	Insert(ctx context.Context, form *models.Form) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Form, error)
	FindActive(ctx context.Context, packageName string) (*models.Form, error)
	Find(ctx context.Context, filter FormFilter) ([]models.Form, error)
	Count(ctx context.Context, filter FormFilter) (int64, error)
	DistinctPackages(ctx context.Context) ([]string, error)
	// SetActive toggles the flag on one form. Activating deactivates the
	// package siblings atomically with the target update.
	SetActive(ctx context.Context, id string, active bool, at time.Time) (*models.Form, int64, error)
}

// FeedbackFilter narrows feedback queries. PackageName is always required.
type FeedbackFilter struct {
	PackageName string
	FormID      string
	UserID      string
	// MessageQuery matches message as a case-insensitive literal substring.
	MessageQuery string
}

// FindOptions controls ordering and size of feedback listings.
type FindOptions struct {
	NewestFirst bool
	Limit       int64
}

type FeedbackRepository interface {
	Insert(ctx context.Context, fb *models.Feedback) error
	FindByID(ctx context.Context, packageName, id string) (*models.Feedback, error)
	Find(ctx context.Context, filter FeedbackFilter, opts FindOptions) ([]models.Feedback, error)
	Exists(ctx context.Context, packageName string) (bool, error)
	RatingSummary(ctx context.Context, filter FeedbackFilter) (*models.RatingSummary, error)
	DeleteByID(ctx context.Context, packageName, id string) (int64, error)
	DeleteMany(ctx context.Context, filter FeedbackFilter) (int64, error)
}
