package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

type stubAnalysisRepo struct {
	analyses  map[uuid.UUID]*models.ResumeAnalysis
	created   []*models.ResumeAnalysis
	findErr   error
	createErr error
}

func newStubAnalysisRepo() *stubAnalysisRepo {
	return &stubAnalysisRepo{analyses: map[uuid.UUID]*models.ResumeAnalysis{}}
}

func (s *stubAnalysisRepo) Create(a *models.ResumeAnalysis) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, a)
	s.analyses[a.ID] = a
	return nil
}

func (s *stubAnalysisRepo) FindByID(id uuid.UUID) (*models.ResumeAnalysis, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	a, ok := s.analyses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return a, nil
}

func (s *stubAnalysisRepo) ClaimQueued(uuid.UUID) (bool, error) { return true, nil }

func (s *stubAnalysisRepo) UpdateResult(uuid.UUID, *repositories.AnalysisUpdateData) error {
	return nil
}

func (s *stubAnalysisRepo) UpdateError(uuid.UUID, string) error { return nil }

func (s *stubAnalysisRepo) FindPendingJobs(int) ([]models.ResumeAnalysis, error) { return nil, nil }

func newResultApp(t *testing.T, repo repositories.AnalysisRepository) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/result/:id", NewResultHandler(repo, zaptest.NewLogger(t)).HandleGetResult)
	return app
}

func getResult(t *testing.T, app *fiber.App, id string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/result/"+id, nil))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func TestHandleGetResult_Completed(t *testing.T) {
	repo := newStubAnalysisRepo()
	id := uuid.New()
	parsed := `{"full_name":"Jane Doe","education":[{"latest_education_level":"masters"}]}`
	ats := `{"ats_score":64.5,"matching_keywords":["go"],"overall_assessment":"Moderate"}`
	score := 64.5
	repo.analyses[id] = &models.ResumeAnalysis{
		ID:               id,
		Status:           models.StatusCompleted,
		ParsedData:       &parsed,
		AtsRawJSON:       &ats,
		AtsScore:         &score,
		ParsedDataSource: "ai",
		AtsSource:        "ai",
	}

	resp, body := getResult(t, newResultApp(t, repo), id.String())

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, "completed", body["status"])
	assert.NotContains(t, body, "error_message")

	result := body["result"].(map[string]any)
	assert.Equal(t, 64.5, result["ats_score"])
	assert.Equal(t, "ai", result["parsed_data_source"])
	assert.Equal(t, "Jane Doe", result["parsed_data"].(map[string]any)["full_name"])
	assert.Equal(t, "Moderate", result["ats_raw_json"].(map[string]any)["overall_assessment"])
}

func TestHandleGetResult_CorruptStoredJSONIsOmitted(t *testing.T) {
	repo := newStubAnalysisRepo()
	id := uuid.New()
	broken := "{"
	repo.analyses[id] = &models.ResumeAnalysis{ID: id, Status: models.StatusCompleted, ParsedData: &broken}

	resp, body := getResult(t, newResultApp(t, repo), id.String())

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, body["result"].(map[string]any)["parsed_data"])
}

func TestHandleGetResult_Failed(t *testing.T) {
	repo := newStubAnalysisRepo()
	id := uuid.New()
	msg := "Failed to parse resume: bad xref"
	repo.analyses[id] = &models.ResumeAnalysis{ID: id, Status: models.StatusFailed, ErrorMessage: &msg}

	resp, body := getResult(t, newResultApp(t, repo), id.String())

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, msg, body["error_message"])
	assert.NotContains(t, body, "result")
}

func TestHandleGetResult_Queued(t *testing.T) {
	repo := newStubAnalysisRepo()
	id := uuid.New()
	repo.analyses[id] = &models.ResumeAnalysis{ID: id, Status: models.StatusQueued}

	_, body := getResult(t, newResultApp(t, repo), id.String())

	assert.Equal(t, "queued", body["status"])
	assert.NotContains(t, body, "result")
}

func TestHandleGetResult_Errors(t *testing.T) {
	resp, body := getResult(t, newResultApp(t, newStubAnalysisRepo()), "not-a-uuid")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid analysis ID format", body["error"])

	resp, body = getResult(t, newResultApp(t, newStubAnalysisRepo()), uuid.NewString())
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Analysis not found", body["error"])

	failing := newStubAnalysisRepo()
	failing.findErr = errors.New("connection refused")
	resp, _ = getResult(t, newResultApp(t, failing), uuid.NewString())
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
