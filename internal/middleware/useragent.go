package middleware

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

// BanUserAgents returns a middleware that rejects requests whose User-Agent
// matches any of the given patterns with a 403. Used to keep known scrapers
// off the API.
func BanUserAgents(patterns ...string) echo.MiddlewareFunc {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ua := c.Request().UserAgent()
			for _, re := range compiled {
				if re.MatchString(ua) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "you are banned"})
				}
			}
			return next(c)
		}
	}
}
