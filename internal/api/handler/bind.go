package handler

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/todo-system/internal/core/domain"
)

// bindStrict decodes a JSON body into dst, rejecting unknown fields and
// trailing data, then runs the registered validator.
func bindStrict(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("invalid payload: " + strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return domain.NewValidationError("invalid payload: unexpected data after JSON body")
	}

	return c.Validate(dst)
}
