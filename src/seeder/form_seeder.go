package seeder

import (
	"context"

	"feedback-api/src/models"
	"feedback-api/src/services/forms"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("feedback.seeder")

// DemoPackage is the package SeedSampleForms fills when none is given.
const DemoPackage = "com.example.demo"

func boolPtr(b bool) *bool { return &b }

// sampleForms: one form per type; the rating form is the active one.
func sampleForms(packageName string) []models.CreateFormRequest {
	return []models.CreateFormRequest{
		{
			PackageName: packageName,
			Title:       "Tell us what you think",
			Description: "Free text comments about the app",
			FormType:    models.FormTypeFreeText,
			IsActive:    boolPtr(false),
		},
		{
			PackageName: packageName,
			Title:       "Rate and review",
			Description: "A star rating together with a short review",
			FormType:    models.FormTypeRatingText,
			IsActive:    boolPtr(false),
		},
		{
			PackageName: packageName,
			Title:       "How satisfied are you with the app?",
			Description: "Rate your experience from 1 to 5",
			FormType:    models.FormTypeRating,
			IsActive:    boolPtr(true),
		},
	}
}

// SeedSampleForms creates sample forms for a package. A package that
// already has forms is left alone. It returns the number of forms created.
func SeedSampleForms(ctx context.Context, svc *forms.Service, packageName string) (int, error) {
	if packageName == "" {
		packageName = DemoPackage
	}

	existing, err := svc.ListForms(ctx, packageName, nil)
	switch {
	case err == nil:
		logger.Infof("package %q already has %d form(s), skipping seed", packageName, len(existing))
		return 0, nil
	case !errors.Is(err, errors.NotFound):
		return 0, errors.Annotatef(err, "checking forms of %q", packageName)
	}

	created := 0
	for _, req := range sampleForms(packageName) {
		req := req
		form, err := svc.CreateForm(ctx, &req)
		if err != nil {
			return created, errors.Annotatef(err, "seeding %q", req.Title)
		}
		created++
		logger.Infof("✅ seeded form %s (%s) for %q", form.ID, form.FormType, packageName)
	}
	return created, nil
}
