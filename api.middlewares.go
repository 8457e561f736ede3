package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewaresStacks builds the chains used by the catalog and the ops routes.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.StatsMiddleware,
		CORSMiddleware,
		api.CoreMiddleware,
	}
	ops := &Middlewares{
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.RequestIDMiddleware,
		api.CoreMiddleware,
	}
	return public, ops
}

// CoreMiddleware measures each request and logs its status, size and duration.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)
		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Int("request.status", cw.Status()),
			zap.Int("request.bytes", cw.Bytes()),
			zap.Duration("request.duration", time.Since(start)),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), RequestNumberContextKey, atomic.AddUint64(&api.stats.called, 1))
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// RequestIDMiddleware generates and add a unique id to the request context.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// StatsMiddleware records the number of responses sent per status code.
func (api *APIHandler) StatsMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)
		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()
	}
}

// CORSHeaders sets the cross-origin headers allowed by the api.
func CORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		CORSHeaders(w.Header())
		next(w, r, ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to process the request.", nil)
				if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}
