package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a Swagger UI page and the OpenAPI document it loads.
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>campusnet API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// swaggerJSON lists the public surface. Request schemas are kept to the required fields.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "campusnet", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    }
  },
  "paths": {
    "/api/register": {
      "post": {
        "summary": "Register a student or university",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["type", "name", "email", "password"], "properties": { "type": { "type": "string", "enum": ["student", "university"] }, "name": { "type": "string" }, "email": { "type": "string" }, "password": { "type": "string" }, "nationality": { "type": "string" }, "address": { "type": "object" } } } } } },
        "responses": { "201": { "description": "user and access token" }, "400": { "description": "invalid input" }, "409": { "description": "email already in use" } }
      }
    },
    "/api/login": {
      "post": {
        "summary": "Log in with email and password",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["email", "password"], "properties": { "email": { "type": "string" }, "password": { "type": "string" } } } } } },
        "responses": { "200": { "description": "access and refresh tokens" }, "401": { "description": "incorrect password" }, "404": { "description": "user not found" } }
      }
    },
    "/api/refresh-token": {
      "post": { "summary": "Exchange a refresh token for an access token", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } }, "responses": { "200": { "description": "new access token" }, "401": { "description": "missing token" }, "403": { "description": "invalid refresh token" } } }
    },
    "/api/logout": {
      "post": { "summary": "End the session", "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "refreshToken": { "type": "string" } } } } } }, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/users/me": {
      "get": { "summary": "Current user", "security": [{ "bearer": [] }], "responses": { "200": { "description": "user" }, "401": { "description": "unauthenticated" } } },
      "put": { "summary": "Update profile (multipart photo, coverPhoto)", "security": [{ "bearer": [] }], "responses": { "200": { "description": "user" } } }
    },
    "/api/users/{id}/authenticity": {
      "put": { "summary": "Set university entitlements", "security": [{ "bearer": [] }], "responses": { "200": { "description": "updated user" }, "403": { "description": "administrators only" } } }
    },
    "/api/users/{id}/follow": {
      "post": { "summary": "Toggle following a university", "security": [{ "bearer": [] }], "responses": { "200": { "description": "follow state" } } }
    },
    "/api/programs": {
      "get": { "summary": "List programs", "responses": { "200": { "description": "programs" } } },
      "post": { "summary": "Create a program (multipart attachments)", "security": [{ "bearer": [] }], "responses": { "201": { "description": "program" }, "403": { "description": "not entitled" } } }
    },
    "/api/programs/search": {
      "get": { "summary": "Search programs by title", "parameters": [{ "name": "q", "in": "query", "required": true, "schema": { "type": "string" } }], "responses": { "200": { "description": "programs" } } }
    },
    "/api/programs/{programId}/apply": {
      "post": { "summary": "Apply to a program", "security": [{ "bearer": [] }], "responses": { "201": { "description": "candidature" }, "403": { "description": "not allowed to apply" }, "404": { "description": "program not found" }, "409": { "description": "already applied" } } }
    },
    "/api/candidatures/documents": {
      "post": { "summary": "Upload student documents (multipart attachments)", "security": [{ "bearer": [] }], "responses": { "201": { "description": "student" } } }
    },
    "/api/candidatures/university": {
      "get": { "summary": "Candidatures received by the calling university", "security": [{ "bearer": [] }], "responses": { "200": { "description": "candidatures" } } }
    },
    "/api/candidatures/{id}/status": {
      "put": { "summary": "Accept or refuse a candidature", "security": [{ "bearer": [] }], "responses": { "200": { "description": "candidature" }, "409": { "description": "already decided" } } }
    },
    "/api/notifications/{id}": {
      "get": { "summary": "Notifications of a user", "security": [{ "bearer": [] }], "responses": { "200": { "description": "notifications" } } }
    },
    "/api/notifications/ws": {
      "get": { "summary": "Live notifications over websocket", "responses": { "101": { "description": "switching protocols" } } }
    },
    "/api/publications": {
      "get": { "summary": "Publication feed", "responses": { "200": { "description": "publications" } } }
    },
    "/api/publications/posts": {
      "post": { "summary": "Create a publication", "security": [{ "bearer": [] }], "responses": { "201": { "description": "publication" } } }
    },
    "/api/publications/{id}/like": {
      "post": { "summary": "Toggle a like", "security": [{ "bearer": [] }], "responses": { "200": { "description": "like state" } } }
    },
    "/api/news": {
      "get": { "summary": "List news", "responses": { "200": { "description": "news" } } },
      "post": { "summary": "Create news", "security": [{ "bearer": [] }], "responses": { "201": { "description": "news" }, "403": { "description": "administrators only" } } }
    },
    "/media/media": {
      "post": { "summary": "Upload a single file", "security": [{ "bearer": [] }], "responses": { "201": { "description": "media" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
