package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "VGate API",
        "description": "Video access gating and secure delivery URL issuing",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Playback", "description": "Access resolution, playback URLs and code redemption"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/videos/{id}/playback": {
            "get": {
                "tags": ["Playback"],
                "summary": "Resolve access and return a playback URL",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "Authorization", "in": "header", "type": "string", "description": "Optional registered-viewer bearer token"},
                    {"name": "X-Viewer-Session", "in": "header", "type": "string", "description": "Optional anonymous session token"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PlaybackResponse"}},
                    "404": {"description": "Video not found"}
                }
            }
        },
        "/api/v1/videos/{id}/unlock": {
            "post": {
                "tags": ["Playback"],
                "summary": "Redeem a code against a video",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access granted"},
                    "422": {"description": "Code rejected"},
                    "503": {"description": "Code validation unavailable"}
                }
            }
        },
        "/api/v1/categories/{id}/unlock": {
            "post": {
                "tags": ["Playback"],
                "summary": "Redeem a code against a category",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access granted"},
                    "422": {"description": "Code rejected"},
                    "503": {"description": "Code validation unavailable"}
                }
            }
        }
    },
    "definitions": {
        "UnlockRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "code": {"type": "string", "minLength": 3, "maxLength": 50}
            }
        },
        "PlaybackResponse": {
            "type": "object",
            "properties": {
                "video_id": {"type": "string"},
                "title": {"type": "string"},
                "access_level": {"type": "string", "enum": ["preview_only", "full_video", "category_unlocked", "site_wide"]},
                "playable": {"type": "boolean"},
                "preview": {"type": "boolean"},
                "playback_url": {"type": "string"},
                "thumbnail_url": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "VGate API",
	Description:      "Video access gating and secure delivery URL issuing",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
