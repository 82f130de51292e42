// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/api/analyses": {
            "post": {
                "description": "Stores the submission as pending and starts background classification. Progress is pushed over /ws.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Submit content for analysis",
                "parameters": [
                    {
                        "description": "content to analyze (contentType: text|image|video|audio)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httptransport.createAnalysisDTO"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entity.Submission"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/analyses/recent": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "List recent analyses",
                "parameters": [
                    {"type": "integer", "description": "max items (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.Submission"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/analyses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "Get analysis by id",
                "parameters": [
                    {"type": "string", "description": "analysis id (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Submission"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/queue": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analyses"],
                "summary": "List pending analyses",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.Submission"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Current system stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.SystemStats"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/activity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Recent activity log",
                "parameters": [
                    {"type": "integer", "description": "max items (default 10, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.ActivityLog"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Health"}}
                }
            }
        }
    },
    "definitions": {
        "entity.ActivityLog": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": {}},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["flag", "warning", "success", "info"]}
            }
        },
        "entity.Submission": {
            "type": "object",
            "properties": {
                "confidenceScore": {"type": "integer"},
                "content": {"type": "string"},
                "contentType": {"type": "string", "enum": ["text", "image", "video", "audio"]},
                "createdAt": {"type": "string"},
                "detectedIssues": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "string"},
                "processingTime": {"type": "integer"},
                "riskLevel": {"type": "string", "enum": ["safe", "medium", "high"]},
                "status": {"type": "string", "enum": ["pending", "processing", "completed", "failed"]},
                "updatedAt": {"type": "string"}
            }
        },
        "entity.SystemStats": {
            "type": "object",
            "properties": {
                "accuracyRate": {"type": "integer"},
                "flaggedContent": {"type": "integer"},
                "id": {"type": "string"},
                "queueLength": {"type": "integer"},
                "totalAnalyzed": {"type": "integer"},
                "updatedAt": {"type": "string"}
            }
        },
        "httptransport.apiError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "httptransport.createAnalysisDTO": {
            "type": "object",
            "properties": {
                "content": {"type": "string", "example": "hello world"},
                "contentType": {"type": "string", "example": "text"}
            }
        },
        "service.Health": {
            "type": "object",
            "properties": {
                "metrics": {"$ref": "#/definitions/service.HealthMetrics"},
                "services": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "service.HealthMetrics": {
            "type": "object",
            "properties": {
                "connectedClients": {"type": "integer"},
                "cpuUsage": {"type": "number"},
                "inFlightAnalyses": {"type": "integer"},
                "memoryUsage": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Content Moderation API",
	Description:      "Submission lifecycle, dashboard stats and activity feed. Live updates on /ws.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
