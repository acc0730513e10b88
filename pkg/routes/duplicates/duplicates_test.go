package duplicates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/duplicates"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/models"
)

const castingText = "Ищем актрису 25-30 лет на главную роль в полнометражный фильм, съёмки в Москве"

type memHistory struct {
	rows []models.CastingRequest
}

func (m *memHistory) Create(_ context.Context, req *models.CastingRequest) (*models.CastingRequest, error) {
	req.ID = int64(len(m.rows) + 1)
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	m.rows = append(m.rows, *req)
	return req, nil
}

func (m *memHistory) ListSince(_ context.Context, since time.Time, authorID string) ([]models.CastingRequest, error) {
	var out []models.CastingRequest
	for _, r := range m.rows {
		if r.CreatedAt.Before(since) || (authorID != "" && r.AuthorID != authorID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func newServer(t *testing.T) (*echo.Echo, *memHistory) {
	t.Helper()
	cfg, err := config.Preset("balanced")
	require.NoError(t, err)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	history := &memHistory{}
	detector := duplicates.NewDetector(logger, cfg, history)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(detector, history).Register(e.Group("/api/v1/duplicates"))
	return e, history
}

func post(e *echo.Echo, target string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecordThenCheck(t *testing.T) {
	e, history := newServer(t)

	rec := post(e, "/api/v1/duplicates/requests", models.CheckDuplicateRequest{Text: castingText, AuthorID: "u1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, history.rows, 1)

	rec = post(e, "/api/v1/duplicates/check", models.CheckDuplicateRequest{Text: castingText + "!", AuthorID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var verdict models.DuplicateVerdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.True(t, verdict.IsDuplicate)
	require.NotNil(t, verdict.MatchedRequestID)
	assert.Equal(t, int64(1), *verdict.MatchedRequestID)

	rec = post(e, "/api/v1/duplicates/check", models.CheckDuplicateRequest{Text: castingText, AuthorID: "u2"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.False(t, verdict.IsDuplicate, "history is scoped per author")
}

func TestCheck_ShortText(t *testing.T) {
	e, _ := newServer(t)
	rec := post(e, "/api/v1/duplicates/check", models.CheckDuplicateRequest{Text: "Кастинг", AuthorID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"is_duplicate":false,"comparable":false,"similarity":0}`, rec.Body.String())
}

func TestRecord_BlankText(t *testing.T) {
	e, _ := newServer(t)
	assert.Equal(t, http.StatusBadRequest, post(e, "/api/v1/duplicates/requests", models.CheckDuplicateRequest{Text: "  "}).Code)
}

func TestSimilarity(t *testing.T) {
	e, _ := newServer(t)
	rec := post(e, "/api/v1/duplicates/similarity", models.SimilarityRequest{A: castingText, B: strings.ToUpper(castingText)})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SimilarityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hybrid", resp.Method)
	assert.Equal(t, 1.0, resp.Similarity)
}

func TestSettingsAndPresets(t *testing.T) {
	e, _ := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/duplicates/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var settings config.DuplicateDetectionConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, 0.85, settings.SimilarityThreshold)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/duplicates/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var presets map[string]config.DuplicateDetectionConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	assert.Contains(t, presets, "strict")
	assert.Contains(t, presets, "loose")
}
