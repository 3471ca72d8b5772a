// Package swagger registers the OpenAPI document served under /swagger/*.
// Keep it in step with the @Router annotations on the feature handlers.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/expiry/notices": {
            "get": {
                "description": "Lists the user's vitamins and medications that expire today or tomorrow. Without user_id no scan is performed.",
                "produces": ["application/json"],
                "tags": ["expiry"],
                "summary": "Get expiring vitamins and medications",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "user_id", "in": "query"},
                    {"type": "string", "description": "Reference instant (RFC 3339), defaults to now", "name": "at", "in": "query"},
                    {"type": "boolean", "description": "Bypass the notice cache", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.NoticesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Probes the records API and the notice cache.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reminders/digest": {
            "get": {
                "description": "Returns the result of the most recent reminder run over the watched users.",
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Get the latest reminder digest",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Digest"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reminders/run": {
            "post": {
                "description": "Scans every watched user immediately and returns the digest.",
                "produces": ["application/json"],
                "tags": ["reminders"],
                "summary": "Run the reminder digest now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Digest"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Digest": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/domain.Entry"}},
                "finished_at": {"type": "string"},
                "run_id": {"type": "string"},
                "started_at": {"type": "string"},
                "trigger": {"type": "string"}
            }
        },
        "domain.Entry": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/domain.ExpiryNotice"}},
                "user_id": {"type": "string"}
            }
        },
        "domain.ExpiryNotice": {
            "type": "object",
            "properties": {
                "item_type": {"type": "string"},
                "name": {"type": "string"},
                "when": {"type": "string"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "ray_id": {"type": "string"}
            }
        },
        "handler.NoticeResponse": {
            "type": "object",
            "properties": {
                "item_type": {"type": "string"},
                "message": {"type": "string"},
                "name": {"type": "string"},
                "when": {"type": "string"}
            }
        },
        "handler.NoticesResponse": {
            "type": "object",
            "properties": {
                "cached": {"type": "boolean"},
                "has_notices": {"type": "boolean"},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/handler.NoticeResponse"}},
                "reference_day": {"type": "string"},
                "skipped": {"type": "boolean"},
                "user_id": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Expiry Scanner API",
	Description:      "Reports vitamins and medications that expire today or tomorrow.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
