package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/model"
)

// currentUser reads the account the Authenticate middleware attached to the
// request. ok is false when the middleware did not run, which on a protected
// route means a wiring bug rather than a client error.
func currentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(middleware.UserKey).(model.User)
	return u, ok
}
