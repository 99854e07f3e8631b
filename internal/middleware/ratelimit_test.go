package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/model"
)

func TestTokenBucketPassThrough(t *testing.T) {
	e := echo.New()

	// Disabled limiter and missing Redis client both mean no throttling.
	for name, mw := range map[string]echo.MiddlewareFunc{
		"disabled": NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil),
		"no redis": NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/contacts", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
			require.NoError(t, mw(next)(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		})
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	newCtx := func(uid uint64) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/v1/contacts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/contacts")
		if uid != 0 {
			c.Set(UserKey, model.User{ID: uid})
		}
		return c
	}

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:7", buildRateKey(cfg, newCtx(7)))
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon", buildRateKey(cfg, newCtx(0)))

	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:GET /v1/contacts", buildRateKey(cfg, newCtx(7)))

	// Unknown strategies fall back to the full composite key.
	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /v1/contacts", buildRateKey(cfg, newCtx(7)))
}
