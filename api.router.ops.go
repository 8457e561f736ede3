package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupOpsRoutes injects internal operations related endpoints.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/ops/configs", m.ops(api.GetConfigs))
	router.GET("/ops/stats", m.ops(api.GetStatistics))
	router.POST("/ops/books", m.ops(api.CreateBook))
	return router
}
