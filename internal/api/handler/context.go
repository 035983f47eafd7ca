package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userhub/accounts-service/internal/api/middleware"
)

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. Its presence proves the middleware ran; a handler reached
// without it rejects with 401 rather than trusting the route table.
func ctxUserID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextKeyUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// ctxToken extracts the raw bearer token stored by the Auth middleware.
func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(middleware.ContextKeyToken).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return token, nil
}
