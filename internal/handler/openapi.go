package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAPISpec describes the four routes this service exposes (§6).
// Adapted from the teacher's hand-rolled OpenAPI document; this is
// documentation sugar with no behavior of its own.
func OpenAPISpec() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Duplicate Detection Service",
			"description": "Duplicate-detection microservice for a learning-object repository",
			"version":     "1.0.0",
		},
		"paths": map[string]interface{}{
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Liveness probe",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is up"},
					},
				},
			},
			"/detect/hash/by-node": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Detect duplicates of a known node",
					"operationId": "detectByNode",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{"$ref": "#/components/schemas/ByNodeRequest"},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Detection result",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{"$ref": "#/components/schemas/DetectionResponse"},
								},
							},
						},
						"400": map[string]interface{}{"description": "Invalid node, unsearchable metadata, or out-of-range parameter"},
						"503": map[string]interface{}{"description": "Persistent upstream failure"},
					},
				},
			},
			"/detect/hash/by-metadata": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Detect duplicates of a bare metadata record",
					"operationId": "detectByMetadata",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{"$ref": "#/components/schemas/ByMetadataRequest"},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Detection result",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{"$ref": "#/components/schemas/DetectionResponse"},
								},
							},
						},
						"400": map[string]interface{}{"description": "Unsearchable metadata or out-of-range parameter"},
						"429": map[string]interface{}{"description": "Rate limit exceeded"},
					},
				},
			},
			"/admin/cache/clear": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Purge the response cache",
					"operationId": "clearCache",
					"security":    []map[string]interface{}{{"AdminKey": []string{}}},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Cache purged"},
						"403": map[string]interface{}{"description": "Wrong or missing admin key"},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"AdminKey": map[string]interface{}{
					"type": "apiKey",
					"in":   "header",
					"name": "X-Admin-Key",
				},
			},
			"schemas": map[string]interface{}{
				"ByNodeRequest": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"node_id":              map[string]interface{}{"type": "string"},
						"similarity_threshold": map[string]interface{}{"type": "number"},
						"search_fields":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"max_candidates":       map[string]interface{}{"type": "integer"},
					},
					"required": []string{"node_id"},
				},
				"ByMetadataRequest": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"metadata":             map[string]interface{}{"$ref": "#/components/schemas/Metadata"},
						"similarity_threshold": map[string]interface{}{"type": "number"},
						"search_fields":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"max_candidates":       map[string]interface{}{"type": "integer"},
					},
				},
				"Metadata": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":       map[string]interface{}{"type": "string"},
						"description": map[string]interface{}{"type": "string"},
						"keywords":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"url":         map[string]interface{}{"type": "string"},
					},
				},
				"DetectionResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"source_metadata":           map[string]interface{}{"$ref": "#/components/schemas/Metadata"},
						"threshold":                 map[string]interface{}{"type": "number"},
						"enrichment":                map[string]interface{}{"type": "object", "nullable": true},
						"candidate_search_results":  map[string]interface{}{"type": "array"},
						"total_candidates_checked":  map[string]interface{}{"type": "integer"},
						"duplicates":                map[string]interface{}{"type": "array"},
					},
				},
			},
		},
	}
}

// OpenAPIHandler serves the spec above as JSON.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(OpenAPISpec())
	}
}

// SwaggerUIHandler serves a minimal Swagger UI page pointed at
// /openapi.json.
func SwaggerUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Duplicate Detection Service</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
    SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
        layout: "BaseLayout"
    });
    </script>
</body>
</html>`
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}
}
