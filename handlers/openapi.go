package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the
// fulfillment service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>lexfirma-fulfillment — Swagger</title>
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

// Minimal OpenAPI document describing the fulfillment endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "lexfirma-fulfillment", "version": "v0.1.0" },
  "paths": {
    "/api/fulfillment/{token}": {
      "get": { "summary": "Fetch a document by its access token", "responses": { "200": { "description": "document" }, "404": { "description": "unknown token" } } }
    },
    "/api/fulfillment/{token}/observations": {
      "post": { "summary": "Submit client observations on the draft", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"observations":{"type":"string"}}}}}}, "responses": { "200": { "description": "document back in lawyer review" }, "400": { "description": "empty observations" }, "409": { "description": "document not awaiting client review" } } }
    },
    "/api/fulfillment/{token}/payment/session": {
      "post": { "summary": "Open a payment session (free documents are approved directly)", "responses": { "200": { "description": "checkout configuration or approved document" }, "409": { "description": "document not ready for payment" }, "502": { "description": "payment misconfigured" }, "503": { "description": "gateway unavailable" } } }
    },
    "/api/fulfillment/{token}/payment/return": {
      "get": { "summary": "Redirect confirmation channel", "parameters": [ {"name":"orderId","in":"query","schema":{"type":"string"}}, {"name":"transactionStatus","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "payment confirmed" }, "202": { "description": "still pending" } } }
    },
    "/api/fulfillment/{token}/payment/reconcile": {
      "post": { "summary": "Polling confirmation channel (blocks until approval or exhaustion)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"orderId":{"type":"string"}}}}}}, "responses": { "200": { "description": "payment confirmed" }, "202": { "description": "polling window closed, still pending" } } }
    },
    "/api/fulfillment/{token}/download": {
      "get": { "summary": "Produce and deliver the final document", "responses": { "200": { "description": "download link" }, "409": { "description": "document not paid" } } }
    },
    "/api/review/{token}/claim": {
      "post": { "summary": "Claim a requested document for review", "responses": { "200": { "description": "document in lawyer review" }, "409": { "description": "already claimed" } } }
    },
    "/api/review/{token}/complete": {
      "post": { "summary": "Publish the reviewed draft to the client", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"content":{"type":"string"}}}}}}, "responses": { "200": { "description": "document in client review" }, "400": { "description": "empty content" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
