package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health returns a handler that verifies the database connection. Load
// balancers and monitoring probe it; a failing ping answers 500 so the
// instance drops out of rotation.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
	}
}
