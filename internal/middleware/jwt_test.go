package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runProtected(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token passes and injects claims", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub":  uint64(3),
			"role": "MEMBER",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+raw)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		raw := signToken(t, testSecret, jwt.MapClaims{
			"sub":  uint64(3),
			"role": "MEMBER",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+raw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		raw := signToken(t, "other-secret", jwt.MapClaims{
			"sub":  uint64(3),
			"role": "MEMBER",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+raw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	token := func(role string) string {
		return "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub":  uint64(3),
			"role": role,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
	}

	t.Run("allowed role passes", func(t *testing.T) {
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("ADMIN")}, token("ADMIN"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member cannot reach admin routes", func(t *testing.T) {
		rec := runProtected(t, []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole("ADMIN")}, token("MEMBER"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing role is rejected", func(t *testing.T) {
		rec := runProtected(t, []echo.MiddlewareFunc{RequireRole("ADMIN", "MEMBER")}, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
