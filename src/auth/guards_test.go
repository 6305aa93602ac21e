package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testViewerCookie = "memocal_viewer"
	testAdminCookie  = "memocal_admin"
	testPinHeader    = "X-Admin-Pin"
	testPin          = "0214"
)

func guardedRouter(t *testing.T) (*gin.Engine, *TokenCodec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := NewTokenCodec("test-secret")
	resolver := NewSessionResolver(codec, testViewerCookie, testAdminCookie)
	guard := NewGuard(resolver, testPin, testPinHeader)

	router := gin.New()
	router.GET("/viewer", guard.RequireViewer(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString(RoleContextKey)})
	})
	router.GET("/admin", guard.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString(RoleContextKey)})
	})
	return router, codec
}

func doRequest(router *gin.Engine, path string, cookie *http.Cookie, pin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if pin != "" {
		req.Header.Set(testPinHeader, pin)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func sessionCookie(t *testing.T, codec *TokenCodec, name, role string) *http.Cookie {
	t.Helper()
	token, err := codec.CreateToken(role, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: name, Value: token}
}

func TestRequireViewer(t *testing.T) {
	router, codec := guardedRouter(t)

	t.Run("no session", func(t *testing.T) {
		resp := doRequest(router, "/viewer", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	})

	t.Run("viewer cookie", func(t *testing.T) {
		resp := doRequest(router, "/viewer", sessionCookie(t, codec, testViewerCookie, RoleViewer), "")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), RoleViewer)
	})

	t.Run("admin cookie also passes", func(t *testing.T) {
		resp := doRequest(router, "/viewer", sessionCookie(t, codec, testAdminCookie, RoleAdmin), "")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), RoleAdmin)
	})

	t.Run("viewer token in admin cookie fails", func(t *testing.T) {
		resp := doRequest(router, "/viewer", sessionCookie(t, codec, testAdminCookie, RoleViewer), "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	router, codec := guardedRouter(t)

	t.Run("admin cookie, no pin", func(t *testing.T) {
		resp := doRequest(router, "/admin", sessionCookie(t, codec, testAdminCookie, RoleAdmin), "")
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("pin header, no cookie", func(t *testing.T) {
		resp := doRequest(router, "/admin", nil, testPin)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("neither", func(t *testing.T) {
		resp := doRequest(router, "/admin", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	})

	t.Run("wrong pin", func(t *testing.T) {
		resp := doRequest(router, "/admin", nil, "9999")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("viewer cookie is not enough", func(t *testing.T) {
		resp := doRequest(router, "/admin", sessionCookie(t, codec, testViewerCookie, RoleViewer), "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestEmptyPinNeverMatches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := NewTokenCodec("test-secret")
	resolver := NewSessionResolver(codec, testViewerCookie, testAdminCookie)
	// Guard configured with no PIN at all.
	guard := NewGuard(resolver, "", testPinHeader)

	router := gin.New()
	router.GET("/admin", guard.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := doRequest(router, "/admin", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code,
		"an unset PIN must not accept an empty header")
}
