package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tramita Inbox API",
        "description": "Document inbox routing and triage for administrative case management",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Documents", "description": "Queue listings and triage actions"},
        {"name": "Statistics", "description": "Inbox statistics"},
        {"name": "Sectors", "description": "Sector taxonomy"},
        {"name": "Recipients", "description": "Forwarding recipient directory"},
        {"name": "Exports", "description": "Queue exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List inbox documents for the active queue",
                "parameters": [
                    {"name": "queue", "in": "query", "type": "string", "enum": ["personal", "sector"]},
                    {"name": "sector", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Inbox statistics for the active queue",
                "parameters": [
                    {"name": "queue", "in": "query", "type": "string", "enum": ["personal", "sector"]},
                    {"name": "sector", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Fetch a single document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/documents/{id}/read": {
            "post": {
                "tags": ["Documents"],
                "summary": "Mark a document as read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/analysis": {
            "post": {
                "tags": ["Documents"],
                "summary": "Move a document into analysis",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/documents/{id}/forward": {
            "post": {
                "tags": ["Documents"],
                "summary": "Forward a document to a sector or recipient",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ForwardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/documents/{id}/archive": {
            "post": {
                "tags": ["Documents"],
                "summary": "Archive a document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/documents/{id}/actions": {
            "post": {
                "tags": ["Documents"],
                "summary": "Execute a triage action by name",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DispatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "Action ignored"}
                }
            }
        },
        "/sectors": {
            "get": {
                "tags": ["Sectors"],
                "summary": "Selectable sectors",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recipients": {
            "get": {
                "tags": ["Recipients"],
                "summary": "Search forwarding recipients",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sector", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export the current queue view",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid token"}
                }
            }
        }
    },
    "definitions": {
        "Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "protocol_number": {"type": "string"},
                "document_type": {"type": "string"},
                "subject": {"type": "string"},
                "sender_name": {"type": "string"},
                "company_name": {"type": "string"},
                "entry_at": {"type": "string"},
                "due_at": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "destination_sector": {"type": "string"},
                "direct_recipient_id": {"type": "integer"},
                "notified_externally": {"type": "boolean"},
                "attachment_count": {"type": "integer"},
                "forward_note": {"type": "string"},
                "overdue": {"type": "boolean"},
                "urgent": {"type": "boolean"},
                "sector_label": {"type": "string"}
            }
        },
        "StatisticsSnapshot": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "unread": {"type": "integer"},
                "urgent": {"type": "integer"},
                "overdue": {"type": "integer"},
                "by_sector": {"type": "array", "items": {"$ref": "#/definitions/CountBucket"}},
                "by_type": {"type": "array", "items": {"$ref": "#/definitions/CountBucket"}}
            }
        },
        "CountBucket": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "label": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["login", "password"]
        },
        "ForwardRequest": {
            "type": "object",
            "properties": {
                "target_sector": {"type": "string"},
                "target_recipient_id": {"type": "integer"},
                "note": {"type": "string"}
            },
            "required": ["target_sector"]
        },
        "DispatchRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "target_sector": {"type": "string"},
                "target_recipient_id": {"type": "integer"},
                "note": {"type": "string"}
            },
            "required": ["action"]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "title": {"type": "string"}
            },
            "required": ["format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
