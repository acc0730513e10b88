// Package routes holds helpers shared by the HTTP handlers.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindRequest decodes and validates the request body
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		return v, httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(v); err != nil {
		return v, httperror.NewHTTPError(http.StatusBadRequest, validationError(v, err).Error())
	}

	return v, nil
}

func validationError(input any, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid %T: %s", input, strings.Join(msgs, "; "))
}

// ParseID parses a positive integer path parameter
func ParseID(c echo.Context, param string) (int64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a positive integer", param)
	}
	return id, nil
}

// ParseUUID parses a UUID path parameter
func ParseUUID(c echo.Context, param string) (uuid.UUID, error) {
	raw := c.Param(param)
	if raw == "" {
		return uuid.Nil, httperror.NewHTTPError(http.StatusBadRequest, "missing "+param)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a valid UUID", param)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter within [min, max]
func QueryInt(c echo.Context, name string, fallback, min, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be between %d and %d", name, min, max)
	}
	return v, nil
}
