// Package docs holds the swagger document of the library catalog api.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/books": {
            "get": {
                "produces": ["application/json"],
                "summary": "List all books",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/main.Book"}}
                    }
                }
            }
        },
        "/api/books/search": {
            "get": {
                "produces": ["application/json"],
                "summary": "Search books",
                "parameters": [
                    {"type": "string", "description": "substring to look for", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/main.BookSearchResult"}}
                    }
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Login by email",
                "parameters": [
                    {"description": "user email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/main.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        },
        "/api/users/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "summary": "Loan history of a user",
                "parameters": [
                    {"type": "string", "description": "user id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/main.LoanEvent"}}
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "main.APIError": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "requestid": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "main.Book": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "available": {"type": "boolean"},
                "genre": {"type": "string"},
                "isbn": {"type": "string"},
                "title": {"type": "string"},
                "year": {"type": "integer"}
            }
        },
        "main.BookSearchResult": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "available": {"type": "boolean"},
                "isbn": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "main.LoanEvent": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "dueDate": {"type": "string"},
                "id": {"type": "string"},
                "isbn": {"type": "string"},
                "kind": {"type": "string"},
                "title": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "main.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"}
            }
        },
        "main.LoginResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "success": {"type": "boolean"},
                "userId": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Library Catalog API",
	Description:      "Read-mostly api over the library catalog: books listing, search and login by email.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
