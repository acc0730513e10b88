package matches

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/middleware"
	"github.com/Ramsey-B/iris/pkg/models"
)

type staticCatalog struct {
	companies []models.Company
}

func (s *staticCatalog) ActiveRecords(_ context.Context, category models.Category, _ string) ([]matching.Record, error) {
	if category != models.CategoryCompany {
		return nil, nil
	}
	records := make([]matching.Record, 0, len(s.companies))
	for i := range s.companies {
		records = append(records, &s.companies[i])
	}
	return records, nil
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg, err := config.LoadMatchingConfig("")
	require.NoError(t, err)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	engine := matching.NewEngine(logger, &staticCatalog{companies: []models.Company{
		{ID: 1, Name: "Мосфильм", CompanyType: models.CompanyTypeProduction, IsActive: true},
		{ID: 2, Name: "Ленфильм", CompanyType: models.CompanyTypeProduction, IsActive: true},
	}}, cfg)

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(engine).Register(e.Group("/api/v1/matches"))
	return e
}

type response struct {
	Category   string           `json:"category"`
	Candidates []map[string]any `json:"candidates"`
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/matches/companies/search", `{"fields":{"name":"Мосфильм"},"limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "company", body.Category)
	require.NotEmpty(t, body.Candidates)
	assert.EqualValues(t, 1, body.Candidates[0]["id"])
	assert.Equal(t, "Мосфильм", body.Candidates[0]["name"])
	assert.Equal(t, "high", body.Candidates[0]["confidence"])
}

func TestSearch_EmptyQueryReturnsEmptyList(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/matches/company/search", `{"fields":{"name":"  "}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"category":"company","candidates":[]}`, rec.Body.String())
}

func TestSearch_BadRequests(t *testing.T) {
	e := newServer(t)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown category", "/api/v1/matches/venues/search", `{"fields":{"name":"x"}}`},
		{"missing fields", "/api/v1/matches/company/search", `{}`},
		{"limit too large", "/api/v1/matches/company/search", `{"fields":{"name":"x"},"limit":1000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestByName(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodGet, "/api/v1/matches/company/by-name?name=%D0%9B%D0%B5%D0%BD%D1%84%D0%B8%D0%BB%D1%8C%D0%BC&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Candidates, 1)
	assert.EqualValues(t, 2, body.Candidates[0]["id"])

	rec = do(e, http.MethodGet, "/api/v1/matches/company/by-name?name=x&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
