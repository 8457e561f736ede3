package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupCatalogRoutes injects the catalog related api endpoints.
func (api *APIHandler) SetupCatalogRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/api/books", m.public(api.GetAllBooks))
	router.GET("/api/books/search", m.public(api.SearchBooks))
	router.POST("/api/login", m.public(api.Login))
	router.GET("/api/users/:id/history", m.public(api.GetUserHistory))
	return router
}
