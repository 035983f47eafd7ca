package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/userhub/accounts-service/internal/api/metrics"
	"github.com/userhub/accounts-service/internal/core/domain"
	"github.com/userhub/accounts-service/internal/core/ports"
)

// Context keys set by Auth on success.
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
	ContextKeyToken  = "token"
)

// Auth validates the bearer token, resolves it to a stored user, and attaches
// the identity to the request context. Every failure mode — missing header,
// bad signature, expired or revoked token, deleted user — is rejected with
// the same 401 so callers cannot distinguish the cause; the reason is only
// recorded in metrics.
func Auth(tokens ports.TokenService, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return reject(c, "missing_header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject(c, "malformed_header")
			}

			claims, err := tokens.Verify(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrTokenRevoked) {
					return reject(c, "revoked_token")
				}
				return reject(c, "invalid_token")
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return reject(c, "unknown_user")
			}

			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyToken, parts[1])

			return next(c)
		}
	}
}

func reject(c echo.Context, reason string) error {
	metrics.AuthDeniedTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
