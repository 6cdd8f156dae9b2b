package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"feedback-api/src/controllers"
	"feedback-api/src/metrics"
	"feedback-api/src/models"
	"feedback-api/src/services/feedback"
	"feedback-api/src/services/forms"
	"feedback-api/src/testutil"
	"feedback-api/src/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkg = "com.example.app"

type testServer struct {
	app      *fiber.App
	formRepo *testutil.FormRepository
	fbRepo   *testutil.FeedbackRepository
	mongoErr error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		formRepo: testutil.NewFormRepository(),
		fbRepo:   testutil.NewFeedbackRepository(),
	}
	clock := testutil.NewClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), time.Second)
	m := metrics.New()
	c := testutil.NewMapCache()

	formSvc := forms.NewService(ts.formRepo, forms.Options{Cache: c, Metrics: m, Now: clock.Now})
	fbSvc := feedback.NewService(ts.fbRepo, formSvc, feedback.Options{Cache: c, Metrics: m, Now: clock.Now})

	ts.app = NewApp(Handlers{
		Forms:    controllers.NewFormController(formSvc, time.Second),
		Feedback: controllers.NewFeedbackController(fbSvc, time.Second),
		Health: controllers.NewHealthController(
			func(context.Context) error { return ts.mongoErr },
			func(context.Context) string { return "disabled" },
			time.Second,
		),
		Metrics: m,
	}, AppOptions{})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (ts *testServer) createForm(t *testing.T, title string, typ models.FormType, active bool) models.Form {
	t.Helper()
	status, raw := ts.do(t, http.MethodPost, "/admin/forms", map[string]interface{}{
		"package_name": pkg,
		"title":        title,
		"form_type":    typ,
		"is_active":    active,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Form](t, raw)
}

func (ts *testServer) submit(t *testing.T, form models.Form, user string, rating int, message string) models.Feedback {
	t.Helper()
	body := map[string]interface{}{
		"form_id":      form.ID,
		"package_name": form.PackageName,
		"user_id":      user,
		"message":      message,
	}
	if rating > 0 {
		body["rating"] = rating
	}
	status, raw := ts.do(t, http.MethodPost, "/feedback", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Feedback](t, raw)
}

func assertError(t *testing.T, wantStatus, status int, raw []byte) {
	t.Helper()
	assert.Equal(t, wantStatus, status, string(raw))
	resp := decode[models.ErrorResponse](t, raw)
	assert.Equal(t, wantStatus, resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestLivenessAndHealth(t *testing.T) {
	ts := newTestServer(t)

	status, raw := ts.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "Feedback API is running")

	status, raw = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	health := decode[models.HealthResponse](t, raw)
	assert.Equal(t, models.HealthResponse{Status: "ok", Mongo: "up", Redis: "disabled"}, health)

	ts.mongoErr = errors.New("no reachable servers")
	status, raw = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "down", decode[models.HealthResponse](t, raw).Mongo)
}

func TestFormEndpoints(t *testing.T) {
	suite := testutil.NewSuiteResult("Form Endpoints")
	defer suite.Summary(t)

	ts := newTestServer(t)
	first := ts.createForm(t, "Rate the app", models.FormTypeRating, true)
	second := ts.createForm(t, "Tell us more", models.FormTypeFreeText, false)

	suite.Run(t, "create rejects bad input", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodPost, "/admin/forms", "{not json")
		assertError(t, http.StatusBadRequest, status, raw)

		status, raw = ts.do(t, http.MethodPost, "/admin/forms", map[string]string{"package_name": pkg, "title": "x", "form_type": "stars"})
		assertError(t, http.StatusBadRequest, status, raw)
		assert.Contains(t, string(raw), "form_type")

		status, raw = ts.do(t, http.MethodPost, "/admin/forms", map[string]string{"title": "x", "form_type": "rating"})
		assertError(t, http.StatusBadRequest, status, raw)
		assert.Contains(t, string(raw), "package_name")
	})

	suite.Run(t, "packages", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/forms/packages", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{pkg}, decode[[]string](t, raw))
	})

	suite.Run(t, "active form", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/forms/"+pkg, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, first.ID, decode[models.Form](t, raw).ID)

		status, raw = ts.do(t, http.MethodGet, "/forms/com.unknown", nil)
		assertError(t, http.StatusNotFound, status, raw)
	})

	suite.Run(t, "package listing filters", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/forms/"+pkg+"/all", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.Form](t, raw), 2)

		status, raw = ts.do(t, http.MethodGet, "/forms/"+pkg+"/all?active=false", nil)
		require.Equal(t, http.StatusOK, status)
		inactive := decode[[]models.Form](t, raw)
		require.Len(t, inactive, 1)
		assert.Equal(t, second.ID, inactive[0].ID)

		status, raw = ts.do(t, http.MethodGet, "/forms/"+pkg+"/all?status=active", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.Form](t, raw), 1)

		status, raw = ts.do(t, http.MethodGet, "/forms/"+pkg+"/all?active=maybe", nil)
		assertError(t, http.StatusBadRequest, status, raw)

		status, raw = ts.do(t, http.MethodGet, "/forms/com.unknown/all", nil)
		assertError(t, http.StatusNotFound, status, raw)
	})

	suite.Run(t, "all forms", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/forms/all?active=true", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.Form](t, raw), 1)
	})

	suite.Run(t, "search", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/forms/search?title=TELL", nil)
		require.Equal(t, http.StatusOK, status)
		found := decode[[]models.Form](t, raw)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)

		status, raw = ts.do(t, http.MethodGet, "/forms/search?package_name=com.none", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[[]models.Form](t, raw))

		status, raw = ts.do(t, http.MethodGet, "/forms/search?form_type=stars", nil)
		assertError(t, http.StatusBadRequest, status, raw)
	})

	suite.Run(t, "activate", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodPut, "/forms/"+second.ID+"/activate", map[string]bool{"is_active": true})
		require.Equal(t, http.StatusOK, status, string(raw))
		result := decode[models.ActivateFormResult](t, raw)
		assert.True(t, result.IsActive)
		assert.EqualValues(t, 1, result.DeactivatedFormsCount)

		status, raw = ts.do(t, http.MethodGet, "/forms/"+pkg, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, second.ID, decode[models.Form](t, raw).ID)
		assert.Equal(t, 1, ts.formRepo.ActiveCount(pkg))

		status, raw = ts.do(t, http.MethodPut, "/forms/"+second.ID+"/activate", map[string]string{})
		assertError(t, http.StatusBadRequest, status, raw)

		status, raw = ts.do(t, http.MethodPut, "/forms/missing/activate", map[string]bool{"is_active": true})
		assertError(t, http.StatusNotFound, status, raw)
	})
}

func TestFeedbackEndpoints(t *testing.T) {
	suite := testutil.NewSuiteResult("Feedback Endpoints")
	defer suite.Summary(t)

	ts := newTestServer(t)
	form := ts.createForm(t, "Rate and tell", models.FormTypeRatingText, true)
	inactive := ts.createForm(t, "Old", models.FormTypeRating, false)

	a := ts.submit(t, form, "alice", 5, "Love the search")
	b := ts.submit(t, form, "bob", 5, "fast")
	c := ts.submit(t, form, "alice", 3, "search could be better")
	d := ts.submit(t, form, "carol", 1, "crashes")

	suite.Run(t, "submit errors", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodPost, "/feedback", map[string]interface{}{
			"form_id": form.ID, "package_name": pkg, "user_id": "u", "rating": 7, "message": "x",
		})
		assertError(t, http.StatusBadRequest, status, raw)

		status, raw = ts.do(t, http.MethodPost, "/feedback", map[string]interface{}{
			"form_id": form.ID, "package_name": pkg, "user_id": "u", "rating": 4.5, "message": "x",
		})
		assertError(t, http.StatusBadRequest, status, raw)

		status, raw = ts.do(t, http.MethodPost, "/feedback", map[string]interface{}{
			"form_id": inactive.ID, "package_name": pkg, "user_id": "u", "rating": 4,
		})
		assertError(t, http.StatusNotFound, status, raw)
	})

	suite.Run(t, "list and get", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/feedback/"+pkg, nil)
		require.Equal(t, http.StatusOK, status)
		list := decode[[]models.Feedback](t, raw)
		require.Len(t, list, 4)
		assert.Equal(t, a.ID, list[0].ID)

		status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"?form_id="+inactive.ID, nil)
		assertError(t, http.StatusNotFound, status, raw)

		status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/"+b.ID, nil)
		require.Equal(t, http.StatusOK, status)
		got := decode[models.Feedback](t, raw)
		assert.Equal(t, b.ID, got.ID)
		assert.Equal(t, "fast", got.Message)
		require.NotNil(t, got.Rating)
		assert.Equal(t, 5, *got.Rating)
	})

	suite.Run(t, "by user", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/feedback/"+pkg+"/user/alice", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.Feedback](t, raw), 2)

		status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/user/nobody", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[[]models.Feedback](t, raw))

		status, raw = ts.do(t, http.MethodGet, "/feedback/com.unknown/user/alice", nil)
		assertError(t, http.StatusNotFound, status, raw)
	})

	suite.Run(t, "stats", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/feedback/"+pkg+"/stats", nil)
		require.Equal(t, http.StatusOK, status)
		var stats map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &stats))
		assert.EqualValues(t, 4, stats["count"])
		assert.InDelta(t, 3.5, stats["average_rating"], 1e-9)
		assert.Equal(t, map[string]interface{}{"1": 1.0, "2": 0.0, "3": 1.0, "4": 0.0, "5": 2.0}, stats["rating_breakdown"])

		status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/average-rating?form_id="+form.ID, nil)
		require.Equal(t, http.StatusOK, status)
		assert.InDelta(t, 3.5, decode[models.AverageRating](t, raw).AverageRating, 1e-9)

		status, raw = ts.do(t, http.MethodGet, "/feedback/com.unknown/average-rating", nil)
		assertError(t, http.StatusNotFound, status, raw)
	})

	suite.Run(t, "search", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/feedback/"+pkg+"/search?query=SEARCH", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]models.Feedback](t, raw), 2)

		status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/search?q=crash", nil)
		require.Equal(t, http.StatusOK, status)
		found := decode[[]models.Feedback](t, raw)
		require.Len(t, found, 1)
		assert.Equal(t, d.ID, found[0].ID)
	})

	suite.Run(t, "recent", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodGet, "/feedback/"+pkg+"/recent?limit=2", nil)
		require.Equal(t, http.StatusOK, status)
		recent := decode[[]models.Feedback](t, raw)
		require.Len(t, recent, 2)
		assert.Equal(t, d.ID, recent[0].ID)
		assert.Equal(t, c.ID, recent[1].ID)

		for _, bad := range []string{"0", "-3", "ten"} {
			status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/recent?limit="+bad, nil)
			assertError(t, http.StatusBadRequest, status, raw)
		}
	})

	suite.Run(t, "deletes", func(t *testing.T) {
		status, raw := ts.do(t, http.MethodDelete, "/feedback/"+pkg+"/"+a.ID, nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.EqualValues(t, 1, decode[models.DeleteResult](t, raw).DeletedCount)

		status, raw = ts.do(t, http.MethodDelete, "/feedback/"+pkg+"/"+a.ID, nil)
		assertError(t, http.StatusNotFound, status, raw)

		status, raw = ts.do(t, http.MethodDelete, "/feedback/"+pkg+"/form/"+form.ID, nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		assert.EqualValues(t, 3, decode[models.DeleteResult](t, raw).DeletedCount)

		status, raw = ts.do(t, http.MethodDelete, "/feedback/"+pkg, nil)
		assertError(t, http.StatusNotFound, status, raw)
		assert.Zero(t, ts.fbRepo.Len())
	})
}

func TestStoreFailureIsServerError(t *testing.T) {
	ts := newTestServer(t)
	ts.formRepo.Err = errors.New("connection reset by mongo-0.internal")

	status, raw := ts.do(t, http.MethodGet, "/forms/packages", nil)
	assertError(t, http.StatusInternalServerError, status, raw)
	resp := decode[models.ErrorResponse](t, raw)
	assert.Equal(t, utils.InternalErrorMessage, resp.Message)
	assert.NotContains(t, string(raw), "mongo-0.internal")

	ts.fbRepo.Err = errors.New("connection reset by mongo-1.internal")
	status, raw = ts.do(t, http.MethodGet, "/feedback/"+pkg+"/stats", nil)
	assertError(t, http.StatusInternalServerError, status, raw)
	assert.NotContains(t, string(raw), "mongo-1.internal")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createForm(t, "Rate", models.FormTypeRating, true)

	status, raw := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	body := string(raw)
	assert.Contains(t, body, `feedback_forms_created_total{form_type="rating"} 1`)
	assert.Contains(t, body, `feedback_http_request_duration_seconds_count{method="POST",route="/admin/forms",status="201"} 1`)
}
