package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/utils"
)

// UserKey is the context key under which Authenticate stores the resolved
// account. Handlers read it back via handler-side helpers rather than
// re-parsing the token.
const UserKey = "user"

// UserResolver loads the account a token subject refers to. Satisfied by
// repository.UserRepo.
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// Authenticate returns an Echo middleware that validates a Bearer access
// token, resolves the subject to an account, and attaches the account to the
// request context. Expired and malformed tokens are not distinguished to the
// client; both produce the same 401. Access tokens are not checked against
// any server-side state, so one remains usable until its expiry even after a
// refresh rotation revoked the session.
func Authenticate(secret string, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			email, err := utils.ParseToken(secret, raw, utils.PurposeAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByEmail(ctx, email)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}

			c.Set(UserKey, u)
			return next(c)
		}
	}
}
