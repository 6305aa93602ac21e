package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "memocal/src/app"
	auth "memocal/src/auth"
	cfg "memocal/src/configuration"
	db "memocal/src/repository"
)

const testAdminPin = "0214"

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := &cfg.Properties{}
	config.Auth.Secret = "test-secret"
	config.Auth.ViewerPassword = "ourstory"
	config.Auth.AdminPin = testAdminPin
	config.Auth.ViewerCookieName = "memocal_viewer"
	config.Auth.AdminCookieName = "memocal_admin"
	config.Auth.AdminPinHeader = "X-Admin-Pin"
	config.Auth.ViewerMaxAge = time.Hour
	config.Auth.AdminMaxAge = time.Hour
	config.Store.Path = filepath.Join(t.TempDir(), "entries.db")

	dataStore, err := db.NewEntryDataBase(config)
	require.NoError(t, err)
	require.True(t, dataStore.Connect())

	codec := auth.NewTokenCodec(config.Auth.Secret)
	resolver := auth.NewSessionResolver(codec, config.Auth.ViewerCookieName, config.Auth.AdminCookieName)
	guard := auth.NewGuard(resolver, config.Auth.AdminPin, config.Auth.AdminPinHeader)

	authHandler := NewAuthHandler(config, codec, resolver)
	entriesHandler := NewEntriesHandler(config, dataStore)

	router := gin.New()
	router.POST("/login", authHandler.PostLogin)
	router.POST("/logout", authHandler.Logout)
	router.GET("/entries", guard.RequireViewer(), entriesHandler.GetEntries)
	router.PUT("/entries", guard.RequireAdmin(), entriesHandler.PutEntry)
	router.DELETE("/entries", guard.RequireAdmin(), entriesHandler.DeleteEntry)
	return router
}

func jsonRequest(method, path string, body any) *http.Request {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func listEntries(t *testing.T, router *gin.Engine, viewerCookie *http.Cookie) []app.Entry {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/entries", nil)
	req.AddCookie(viewerCookie)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Payload []app.Entry `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response.Payload
}

func TestCalendarEndToEnd(t *testing.T) {
	router := testRouter(t)

	// Viewer logs in with the shared password and gets the role cookie.
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, jsonRequest(http.MethodPost, "/login", gin.H{"password": "ourstory"}))
	require.Equal(t, http.StatusOK, recorder.Code)
	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	viewerCookie := cookies[0]
	assert.True(t, viewerCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, viewerCookie.SameSite)

	// Admin seeds entries through the PIN header.
	for _, entry := range []gin.H{
		{"date": "2026-02-14", "kind": "gallery", "caption": "Happy Valentine's",
			"media": []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}},
		{"date": "2026-01-01", "kind": "text", "caption": "New year"},
		{"date": "2026-03-08", "kind": "photo", "media": []string{"https://cdn/c.jpg"}},
	} {
		req := jsonRequest(http.MethodPut, "/entries", entry)
		req.Header.Set("X-Admin-Pin", testAdminPin)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	entries := listEntries(t, router, viewerCookie)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-01-01", entries[0].Date)
	assert.Equal(t, "2026-02-14", entries[1].Date)
	assert.Equal(t, "2026-03-08", entries[2].Date)
	assert.Equal(t, app.KindGallery, entries[1].Kind)
	assert.Equal(t, "Happy Valentine's", entries[1].Caption)

	// Delete the gallery and it disappears from the next list.
	req := jsonRequest(http.MethodDelete, "/entries", gin.H{"date": "2026-02-14"})
	req.Header.Set("X-Admin-Pin", testAdminPin)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	entries = listEntries(t, router, viewerCookie)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-01-01", entries[0].Date)
	assert.Equal(t, "2026-03-08", entries[1].Date)
}

func TestEntryValidation(t *testing.T) {
	router := testRouter(t)

	t.Run("viewer password wrong", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, jsonRequest(http.MethodPost, "/login", gin.H{"password": "guess"}))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))
	})

	t.Run("list without session", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/entries", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("upsert without admin", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, jsonRequest(http.MethodPut, "/entries", gin.H{"date": "2026-05-01", "kind": "text"}))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("upsert missing date", func(t *testing.T) {
		req := jsonRequest(http.MethodPut, "/entries", gin.H{"kind": "text"})
		req.Header.Set("X-Admin-Pin", testAdminPin)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "date")
	})

	t.Run("upsert missing kind", func(t *testing.T) {
		req := jsonRequest(http.MethodPut, "/entries", gin.H{"date": "2026-05-01"})
		req.Header.Set("X-Admin-Pin", testAdminPin)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "kind")
	})

	t.Run("delete missing date", func(t *testing.T) {
		req := jsonRequest(http.MethodDelete, "/entries", gin.H{})
		req.Header.Set("X-Admin-Pin", testAdminPin)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestLogoutClearsCookies(t *testing.T) {
	router := testRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, cookie := range cookies {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge, "logout must expire the cookie")
	}
}
