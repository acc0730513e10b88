package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	utils "github.com/Ramsey-B/iris/pkg/context"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newEcho(handler echo.HandlerFunc, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = Error(testLogger())
	e.Use(Context(), Logger(testLogger()))
	e.GET("/x", handler, mw...)
	return e
}

func TestContext(t *testing.T) {
	var requestID, userID, source string
	e := newEcho(func(c echo.Context) error {
		ctx := c.Request().Context()
		requestID = utils.GetRequestID(ctx)
		userID = utils.GetUserID(ctx)
		source = utils.GetSource(ctx)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	req.Header.Set(HeaderUserID, "operator")
	req.Header.Set(HeaderSource, "telegram-bot")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-42", requestID)
	assert.Equal(t, "operator", userID)
	assert.Equal(t, "telegram-bot", source)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestContext_GeneratesRequestID(t *testing.T) {
	e := newEcho(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"http error", httperror.NewHTTPError(http.StatusNotFound, "person 9 not found"), http.StatusNotFound, "person 9 not found"},
		{"wrapped http error", pkgerrors.Wrap(httperror.NewHTTPError(http.StatusConflict, "proposal 3 already resolved"), "confirm"), http.StatusConflict, "proposal 3 already resolved"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "missing bearer"), http.StatusUnauthorized, "missing bearer"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(func(echo.Context) error { return tt.err })
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set(echo.HeaderXRequestID, "req-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, string) (*oidc.IDToken, error) {
	return nil, errors.New("expired")
}

func TestAuthentication(t *testing.T) {
	called := false
	e := newEcho(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusNoContent)
	}, Authentication(testLogger(), rejectingVerifier{}))

	t.Run("missing bearer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	assert.False(t, called)
}
