package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version  string
	runtime  string
	platform string
	called   uint64
	started  time.Time
	status   map[int]uint64
	mu       *sync.RWMutex
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger     *zap.Logger
	config     *Config
	stats      *Statistics
	clock      Clocker
	idsHandler UIDGenerator
	library    LibraryServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, ids UIDGenerator, ls LibraryServiceProvider) *APIHandler {
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:     logger,
		config:     config,
		stats:      stats,
		clock:      clock,
		idsHandler: ids,
		library:    ls,
	}
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Library catalog api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// NotFound answers unknown routes with a json payload instead of plain text.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		CORSHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(
			map[string]interface{}{
				"requestid": requestID,
				"message":   "route does not exist",
				"path":      r.Method + " " + r.URL.Path,
			},
		); err != nil {
			api.logger.Error("failed to send not found response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}

// Preflight answers CORS preflight requests for every registered route.
func (api *APIHandler) Preflight() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		CORSHeaders(w.Header())
		w.WriteHeader(http.StatusNoContent)
	})
}

// GetStatistics provides useful details about the application to the internal ops users.
// The stats returns by this handler do not contain the ops request which triggered that.
// That is why we remove 1 from the called field value in order to match the status stats.
func (api *APIHandler) GetStatistics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	called := atomic.LoadUint64(&api.stats.called)
	if called > 0 {
		called--
	}
	api.stats.mu.RLock()
	err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid":    requestID,
			"app.version":  api.stats.version,
			"app.platform": api.stats.platform,
			"go.version":   api.stats.runtime,
			"called":       called,
			"started":      api.stats.started.Format(time.RFC1123),
			"uptime":       fmt.Sprintf("%.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"status":       api.stats.status,
		},
	)
	api.stats.mu.RUnlock()
	if err != nil {
		api.logger.Error("failed to send statistics response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetConfigs serves current in-use configurations/settings.
func (api *APIHandler) GetConfigs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"configs": api.config,
		},
	); err != nil {
		api.logger.Error("failed to send settings response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// sendError writes the error payload and logs when the client could not get it.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, errResp *APIError) {
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", errResp.RequestID), zap.Error(err))
	}
}

// OpsHandlerWrapper adapts a standard http.Handler to the router signature.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}
