package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

// TestSetupRoutes ensures all expected endpoints are implemented.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/api/books", nil),
			true,
		},
		{
			"fetch all books endpoint with slash",
			httptest.NewRequest(http.MethodGet, "/api/books/", nil),
			true,
		},
		{
			"search books endpoint",
			httptest.NewRequest(http.MethodGet, "/api/books/search?q=Go", nil),
			true,
		},
		{
			"login endpoint",
			httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b"}`)),
			true,
		},
		{
			"user history endpoint",
			httptest.NewRequest(http.MethodGet, "/api/users/u1/history", nil),
			true,
		},
		{
			"ops configs endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/configs", nil),
			true,
		},
		{
			"ops stats endpoint",
			httptest.NewRequest(http.MethodGet, "/ops/stats", nil),
			true,
		},
		{
			"ops create book endpoint",
			httptest.NewRequest(http.MethodPost, "/ops/books", strings.NewReader(`{}`)),
			true,
		},
		{
			"swagger endpoint",
			httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil),
			true,
		},
		{
			"invalid api endpoint",
			httptest.NewRequest(http.MethodGet, "/api", nil),
			false,
		},
		{
			"invalid books endpoint",
			httptest.NewRequest(http.MethodGet, "/books", nil),
			false,
		},
		{
			"create book on public endpoint",
			httptest.NewRequest(http.MethodPut, "/api/books/i1", nil),
			false,
		},
	}

	api, _ := newTestAPIHandler(t, nil)
	api.config.OpsEndpointsEnable = true
	api.config.SwaggerEnable = true
	router := httprouter.New()
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	api.SetupRoutes(router, m)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes_OpsDisabled ensures ops endpoints are only served when enabled.
func TestSetupRoutes_OpsDisabled(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	api.config.OpsEndpointsEnable = false
	api.config.SwaggerEnable = false
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain})

	for _, path := range []string{"/ops/configs", "/ops/stats", "/swagger/index.html"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

// TestRouter_CORS ensures every answer carries the cross-origin headers
// and preflight requests are accepted.
func TestRouter_CORS(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	public, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	assertCORS := func(t *testing.T, h http.Header) {
		assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", h.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", h.Get("Access-Control-Allow-Headers"))
	}

	t.Run("get books", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assertCORS(t, w.Header())
	})

	t.Run("login", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assertCORS(t, w.Header())
		assert.Contains(t, w.Body.String(), `"userId":"u1"`)
	})

	t.Run("preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assertCORS(t, w.Header())
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
		assertCORS(t, w.Header())
	})
}
