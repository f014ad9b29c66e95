package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/todo-system/internal/api/middleware"
)

// ctxOwnerID returns the id of the authenticated caller. It fails with 401
// when the Auth middleware did not run for this route.
func ctxOwnerID(c echo.Context) (string, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.UserID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id.UserID, nil
}
