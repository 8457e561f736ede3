package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestMiddlewaresStacks ensures the public and ops chains have the expected layers.
func TestMiddlewaresStacks(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	public, ops := api.MiddlewaresStacks()
	assert.Len(t, *public, 6)
	assert.Len(t, *ops, 4)
}

// TestMiddlewaresChain ensures middlewares run in their declaration order.
func TestMiddlewaresChain(t *testing.T) {
	var order []string
	layer := func(name string) MiddlewareFunc {
		return func(next httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
				order = append(order, name)
				next(w, r, ps)
			}
		}
	}
	m := &Middlewares{layer("first"), layer("second"), layer("third")}
	h := m.Chain(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		order = append(order, "handler")
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, []string{"first", "second", "third", "handler"}, order)

	empty := &Middlewares{}
	order = nil
	empty.Chain(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		order = append(order, "handler")
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, []string{"handler"}, order)
}

// TestRequestIDMiddleware ensures each request gets its own id in context.
func TestRequestIDMiddleware(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	var got string
	h := api.RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		got = GetValueFromContext(r.Context(), RequestIDContextKey)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, "r:0", got)
}

// TestRequestsCounterMiddleware ensures the counter is visible in the request context.
func TestRequestsCounterMiddleware(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	var nums []uint64
	h := api.RequestsCounterMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		nums = append(nums, GetRequestNumberFromContext(r.Context()))
	})
	for i := 0; i < 3; i++ {
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	}
	assert.Equal(t, []uint64{1, 2, 3}, nums)
	assert.Equal(t, uint64(3), api.stats.called)
}

// TestStatsMiddleware ensures responses are counted per status code.
func TestStatsMiddleware(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	h := api.StatsMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.WriteHeader(http.StatusTeapot)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, uint64(2), api.stats.status[http.StatusTeapot])
}

// TestPanicRecoveryMiddleware ensures a panicking handler answers with 500.
func TestPanicRecoveryMiddleware(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	h := api.PanicRecoveryMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resultMap := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resultMap))
	assert.Equal(t, "failed to process the request.", resultMap["message"])
}

// TestCoreMiddleware ensures the closing request log carries the response status and size.
func TestCoreMiddleware(t *testing.T) {
	api, _ := newTestAPIHandler(t, nil)
	core, logs := observer.New(zap.InfoLevel)
	api.logger = zap.New(core)

	h := api.CoreMiddleware(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/ops/books", nil), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "hello", w.Body.String())

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[1].ContextMap()
	assert.Equal(t, int64(http.StatusCreated), fields["request.status"])
	assert.Equal(t, int64(5), fields["request.bytes"])
	assert.Equal(t, "/ops/books", fields["request.path"])
}
