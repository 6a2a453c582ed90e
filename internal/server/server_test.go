package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellmind/assessment-api/internal/assessment"
	"github.com/wellmind/assessment-api/internal/geo"
	"github.com/wellmind/assessment-api/internal/model"
	"github.com/wellmind/assessment-api/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	store *store.SQLiteStore
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	eval := assessment.NewEvaluator(st, st, assessment.DefaultScoringConfig())
	srv := httptest.NewServer(New(st, eval, cfg).Router())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func seedCategory(t *testing.T, e *testEnv, name string) model.Category {
	t.Helper()
	c := model.Category{Name: name}
	require.NoError(t, e.store.CreateCategory(context.Background(), &c))
	return c
}

func seedQuestion(t *testing.T, e *testEnv, cat model.Category, text string, weight int, active bool) model.Question {
	t.Helper()
	q := model.Question{Text: text, Weight: weight, CategoryID: cat.ID, Active: active}
	require.NoError(t, e.store.CreateQuestion(context.Background(), &q))
	return q
}

func seedProfessional(t *testing.T, e *testEnv, email string, typ model.ProfessionalType, lat, lng *float64) model.Professional {
	t.Helper()
	p := model.Professional{
		FirstName: "Ada", LastName: "Demir", Specialization: "Clinical Psychology",
		Type: typ, Phone: "555-0100", Email: email, Address: "Serdivan, Sakarya",
		Latitude: lat, Longitude: lng,
	}
	require.NoError(t, e.store.CreateProfessional(context.Background(), &p))
	return p
}

func f64(v float64) *float64 { return &v }

func TestServer_Health(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_RequestIDHeader(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp := e.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close() //nolint:errcheck
	assert.Equal(t, "trace-123", resp2.Header.Get("X-Request-ID"))
}

func TestServer_AssessmentQuestions(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	anx := seedCategory(t, e, "Anksiyete")
	seedQuestion(t, e, dep, "Sleep trouble", 1, true)
	seedQuestion(t, e, anx, "Restlessness", 2, true)
	seedQuestion(t, e, dep, "Retired question", 1, false)

	resp := e.do(t, http.MethodGet, "/api/assessment/questions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Categories []model.Category `json:"categories"`
		Questions  []model.Question `json:"questions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.Categories, 2)
	require.Len(t, payload.Questions, 2)
	for _, q := range payload.Questions {
		assert.True(t, q.Active)
		assert.NotEmpty(t, q.Category.Name)
	}
}

func TestServer_AssessmentQuestions_EmptyCatalog(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp := e.do(t, http.MethodGet, "/api/assessment/questions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Categories []model.Category `json:"categories"`
		Questions  []model.Question `json:"questions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.NotNil(t, payload.Categories)
	assert.NotNil(t, payload.Questions)
	assert.Empty(t, payload.Questions)
}

func TestServer_Submit(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	q1 := seedQuestion(t, e, dep, "Low mood", 1, true)
	q2 := seedQuestion(t, e, dep, "Loss of interest", 3, true)

	resp := e.do(t, http.MethodPost, "/api/assessment/submit", assessment.Submission{
		Answers: []model.Answer{
			{QuestionID: q1.ID, Value: 5},
			{QuestionID: q2.ID, Value: 5},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[model.AssessmentResult](t, resp)
	require.Len(t, result.CategoryResults, 1)
	assert.Equal(t, "Depresyon", result.CategoryResults[0].CategoryName)
	assert.InDelta(t, 5.0, result.CategoryResults[0].WeightedScore, 0.001)
	assert.Equal(t, model.LevelHigh, result.CategoryResults[0].Level)
	assert.Equal(t, model.TypePsychiatrist, result.RecommendedType)
	assert.NotEmpty(t, result.Reason)
	assert.NotEmpty(t, result.Overall)
}

func TestServer_Submit_WithNearby(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	q1 := seedQuestion(t, e, dep, "Low mood", 1, true)
	seedProfessional(t, e, "close@example.com", model.TypePsychiatrist, f64(40.76), f64(30.35))
	seedProfessional(t, e, "far@example.com", model.TypePsychiatrist, f64(41.8), f64(32.0))
	seedProfessional(t, e, "psy@example.com", model.TypePsychologist, f64(40.76), f64(30.35))

	resp := e.do(t, http.MethodPost, "/api/assessment/submit", assessment.Submission{
		Answers:  []model.Answer{{QuestionID: q1.ID, Value: 5}},
		Origin:   &geo.Point{Lat: 40.7589, Lng: 30.3425},
		RadiusKM: 20,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[model.AssessmentResult](t, resp)
	assert.Equal(t, model.TypePsychiatrist, result.RecommendedType)
	require.Len(t, result.Nearby, 1)
	assert.Equal(t, "close@example.com", result.Nearby[0].Email)
	assert.Greater(t, result.Nearby[0].DistanceKM, 0.0)
}

func TestServer_Submit_Validation(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	q1 := seedQuestion(t, e, dep, "Low mood", 1, true)

	tests := []struct {
		name string
		sub  assessment.Submission
	}{
		{"empty answers", assessment.Submission{}},
		{"value out of range", assessment.Submission{
			Answers: []model.Answer{{QuestionID: q1.ID, Value: 6}},
		}},
		{"duplicate ids", assessment.Submission{
			Answers: []model.Answer{
				{QuestionID: q1.ID, Value: 3},
				{QuestionID: q1.ID, Value: 4},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/api/assessment/submit", tt.sub)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_Submit_BadJSON(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp, err := http.Post(e.srv.URL+"/api/assessment/submit", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Preview_AllowsDuplicates(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	q1 := seedQuestion(t, e, dep, "Low mood", 1, true)

	resp := e.do(t, http.MethodPost, "/api/assessment/preview", assessment.Submission{
		Answers: []model.Answer{
			{QuestionID: q1.ID, Value: 2},
			{QuestionID: q1.ID, Value: 4},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[model.AssessmentResult](t, resp)
	require.Len(t, result.CategoryResults, 1)
	assert.InDelta(t, 3.0, result.CategoryResults[0].Score, 0.001)
}

func TestServer_RateLimit(t *testing.T) {
	e := newTestEnv(t, Config{RateLimit: 1, RateBurst: 1})
	dep := seedCategory(t, e, "Depresyon")
	q1 := seedQuestion(t, e, dep, "Low mood", 1, true)

	sub := assessment.Submission{Answers: []model.Answer{{QuestionID: q1.ID, Value: 3}}}

	resp := e.do(t, http.MethodPost, "/api/assessment/submit", sub)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/assessment/submit", sub)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Reads are not throttled.
	resp = e.do(t, http.MethodGet, "/api/assessment/questions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Category_CRUD(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp := e.do(t, http.MethodPost, "/api/categories", model.Category{Name: "Uyku"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Category](t, resp)
	assert.NotZero(t, created.ID)

	resp = e.do(t, http.MethodPost, "/api/categories", model.Category{Name: "UYKU"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/categories", model.Category{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/categories/%d", created.ID),
		model.Category{Name: "Uyku", Description: "Sleep quality"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Category](t, resp)
	assert.Equal(t, "Sleep quality", updated.Description)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/categories/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Category_DeleteGuard(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")
	seedQuestion(t, e, dep, "Low mood", 1, true)

	resp := e.do(t, http.MethodDelete, fmt.Sprintf("/api/categories/%d", dep.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_Question_CRUD(t *testing.T) {
	e := newTestEnv(t, Config{})
	dep := seedCategory(t, e, "Depresyon")

	resp := e.do(t, http.MethodPost, "/api/questions",
		model.Question{Text: "Low mood", CategoryID: dep.ID, Active: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Question](t, resp)
	assert.Equal(t, 1, created.Weight)

	resp = e.do(t, http.MethodPost, "/api/questions", model.Question{CategoryID: dep.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Question](t, resp)
	assert.Equal(t, "Depresyon", got.Category.Name)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/questions/%d", created.ID),
		model.Question{Text: "Persistent low mood", Weight: 2, CategoryID: dep.ID, Active: true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/questions?category_id=%d", dep.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]model.Question](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Weight)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/questions/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/questions/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Professional_CRUD(t *testing.T) {
	e := newTestEnv(t, Config{})

	p := model.Professional{
		FirstName: "Ada", LastName: "Demir", Specialization: "Clinical Psychology",
		Type: model.TypePsychologist, Phone: "555-0100",
		Email: "Ada.Demir@Example.com", Address: "Serdivan, Sakarya",
	}
	resp := e.do(t, http.MethodPost, "/api/professionals", p)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Professional](t, resp)
	assert.Equal(t, "ada.demir@example.com", created.Email)

	resp = e.do(t, http.MethodPost, "/api/professionals", p)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	bad := p
	bad.Email = "other@example.com"
	bad.Type = "therapist"
	resp = e.do(t, http.MethodPost, "/api/professionals", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	half := p
	half.Email = "half@example.com"
	half.Latitude = f64(40.0)
	resp = e.do(t, http.MethodPost, "/api/professionals", half)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPut, fmt.Sprintf("/api/professionals/%d", created.ID),
		model.Professional{
			FirstName: "Ada", LastName: "Demir", Specialization: "Neuropsychology",
			Type: model.TypePsychologist, Phone: "555-0100",
			Email: "ada.demir@example.com", Address: "Serdivan, Sakarya",
		})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Professional](t, resp)
	assert.Equal(t, "Neuropsychology", updated.Specialization)

	resp = e.do(t, http.MethodDelete, fmt.Sprintf("/api/professionals/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, fmt.Sprintf("/api/professionals/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Professional_List(t *testing.T) {
	e := newTestEnv(t, Config{})
	seedProfessional(t, e, "a@example.com", model.TypePsychologist, nil, nil)
	seedProfessional(t, e, "b@example.com", model.TypePsychiatrist, nil, nil)
	seedProfessional(t, e, "c@example.com", model.TypePsychiatrist, nil, nil)

	resp := e.do(t, http.MethodGet, "/api/professionals?type=psychiatrist", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[store.ProfessionalPage](t, resp)
	assert.Equal(t, 2, page.TotalCount)
	assert.Len(t, page.Professionals, 2)

	resp = e.do(t, http.MethodGet, "/api/professionals?page=1&page_size=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[store.ProfessionalPage](t, resp)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Professionals, 2)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	resp = e.do(t, http.MethodGet, "/api/professionals?type=therapist", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Professional_Nearby(t *testing.T) {
	e := newTestEnv(t, Config{})
	seedProfessional(t, e, "near@example.com", model.TypePsychologist, f64(40.76), f64(30.35))
	seedProfessional(t, e, "mid@example.com", model.TypePsychologist, f64(40.7808), f64(30.4034))
	seedProfessional(t, e, "far@example.com", model.TypePsychologist, f64(41.8), f64(32.0))
	seedProfessional(t, e, "psychiatrist@example.com", model.TypePsychiatrist, f64(40.76), f64(30.35))

	resp := e.do(t, http.MethodGet,
		"/api/professionals/nearby?lat=40.7589&lng=30.3425&radius_km=20&type=psychologist", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	nearby := decode[[]model.NearbyProfessional](t, resp)
	require.Len(t, nearby, 2)
	assert.Equal(t, "near@example.com", nearby[0].Email)
	assert.Equal(t, "mid@example.com", nearby[1].Email)
	assert.LessOrEqual(t, nearby[0].DistanceKM, nearby[1].DistanceKM)

	// Without a type filter both types qualify.
	resp = e.do(t, http.MethodGet,
		"/api/professionals/nearby?lat=40.7589&lng=30.3425&radius_km=20", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	nearby = decode[[]model.NearbyProfessional](t, resp)
	assert.Len(t, nearby, 3)

	resp = e.do(t, http.MethodGet, "/api/professionals/nearby?lat=40.7589&lng=30.3425", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodGet,
		"/api/professionals/nearby?lat=95&lng=30&radius_km=5", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Specializations(t *testing.T) {
	e := newTestEnv(t, Config{})
	p1 := model.Professional{
		FirstName: "Ada", LastName: "Demir", Specialization: "Clinical Psychology",
		Type: model.TypePsychologist, Phone: "555", Email: "a@example.com", Address: "x",
	}
	p2 := model.Professional{
		FirstName: "Banu", LastName: "Kaya", Specialization: "Psychopharmacology",
		Type: model.TypePsychiatrist, Phone: "555", Email: "b@example.com", Address: "x",
	}
	require.NoError(t, e.store.CreateProfessional(context.Background(), &p1))
	require.NoError(t, e.store.CreateProfessional(context.Background(), &p2))

	resp := e.do(t, http.MethodGet, "/api/professionals/specializations", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	specs := decode[[]string](t, resp)
	assert.Len(t, specs, 2)

	resp = e.do(t, http.MethodGet, "/api/professionals/specializations?type=psychiatrist", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	specs = decode[[]string](t, resp)
	assert.Equal(t, []string{"Psychopharmacology"}, specs)
}
