// Package docs registers the OpenAPI document served at /swagger/.
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
        "/functions/v1/geolocate_phone": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["geolocate"],
                "summary": "Approximate coordinates for a phone number",
                "parameters": [
                    {
                        "description": "phone number",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"phoneNumber": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.GeolocationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/api/phones": {
            "get": {
                "produces": ["application/json"],
                "tags": ["phones"],
                "summary": "List tracked phones, most recently updated first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.TrackedPhone"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["phones"],
                "summary": "Start tracking a phone",
                "parameters": [
                    {"description": "phone", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.NewTrackedPhone"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.TrackedPhone"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/api/phones/changes": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["phones"],
                "summary": "Stream tracked phone change notifications",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/phones/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["phones"],
                "summary": "Get a tracked phone",
                "parameters": [{"type": "string", "description": "phone id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TrackedPhone"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            },
            "delete": {
                "tags": ["phones"],
                "summary": "Stop tracking a phone",
                "parameters": [{"type": "string", "description": "phone id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Error"}}
                }
            }
        },
        "/api/map": {
            "get": {
                "produces": ["application/json"],
                "tags": ["map"],
                "summary": "Viewport and pins for the current phones",
                "parameters": [
                    {"type": "string", "description": "selected phone id", "name": "selected", "in": "query"},
                    {"type": "integer", "description": "canvas width in pixels", "name": "width", "in": "query"},
                    {"type": "integer", "description": "canvas height in pixels", "name": "height", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/devices/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Register a device",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/devices/{id}": {
            "get": {
                "tags": ["devices"],
                "summary": "Get a device",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["devices"],
                "summary": "Delete a device and its location logs",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/locations/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "List location logs",
                "parameters": [
                    {"type": "integer", "name": "device", "in": "query"},
                    {"type": "string", "name": "ordering", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["locations"],
                "summary": "Record a location log",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/locations/{id}": {
            "get": {
                "tags": ["locations"],
                "summary": "Get a location log",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "handler.Error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.GeolocationResult": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "city": {"type": "string"},
                "country": {"type": "string"}
            }
        },
        "models.NewTrackedPhone": {
            "type": "object",
            "properties": {
                "phone_number": {"type": "string"},
                "label": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"}
            }
        },
        "models.TrackedPhone": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "phone_number": {"type": "string"},
                "label": {"type": "string"},
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "last_updated": {"type": "string"},
                "created_at": {"type": "string"}
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
	Title:            "Phone Tracker API",
	Description:      "Geolocation proxy, tracked phones with a live change feed, map view and device logs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
