package main

import (
	_ "github.com/jeamon/library-catalog/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// SetupRoutes injects catalog and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = api.NotFound()
	router.GlobalOPTIONS = api.Preflight()
	api.SetupCatalogRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	if api.config.SwaggerEnable {
		router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	}
	return router
}
