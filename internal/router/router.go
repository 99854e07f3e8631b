// Package router defines how HTTP routes are registered for the API.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the auth and account-lifecycle endpoints under
// /v1/auth. None of them sit behind the bearer middleware: signup, login and
// the mail-token endpoints authenticate by credentials or by the token
// embedded in the link, and refresh carries its own bearer refresh token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.GET("/refresh_token", a.Refresh)
	g.GET("/confirmed_email/:token", a.ConfirmEmail)
	g.POST("/request_email", a.RequestEmail)
	g.POST("/reset_password", a.ResetPassword)
	g.POST("/change_password/:token", a.ChangePassword)
}

// RegisterContacts registers the contact CRUD endpoints under /v1/contacts.
// Every route runs the bearer middleware first (which resolves and attaches
// the account) and then the rate limiter, so limiter keys can include the
// authenticated account.
func RegisterContacts(e *echo.Echo, h *handler.ContactHandler, jwtSecret string, users middleware.UserResolver, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/contacts")
	g.Use(middleware.Authenticate(jwtSecret, users))
	g.Use(limiter)
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/birthdays", h.UpcomingBirthdays)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
