package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIS Progress API",
        "description": "Student progress analytics and risk-assessment pipeline",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Snapshots", "description": "Student progress snapshots and risk assessment"},
        {"name": "Weekly", "description": "Weekly aggregates and teacher commentary"},
        {"name": "Jobs", "description": "Batch recalculation triggers"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/students/{id}/snapshot": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Student progress snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Snapshot not found"}
                }
            }
        },
        "/students/{id}/snapshot/recalculate": {
            "post": {
                "tags": ["Snapshots"],
                "summary": "Recompute one student's snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found"},
                    "422": {"description": "Student not eligible"}
                }
            }
        },
        "/snapshots/attention": {
            "get": {
                "tags": ["Snapshots"],
                "summary": "Snapshots flagged as needing attention",
                "parameters": [
                    {"name": "classroomId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/weekly": {
            "get": {
                "tags": ["Weekly"],
                "summary": "Recent weekly aggregates",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Weekly"],
                "summary": "Generate one weekly aggregate",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateWeeklyPayload"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/weekly/{id}/commentary": {
            "patch": {
                "tags": ["Weekly"],
                "summary": "Update teacher commentary on a weekly row",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCommentaryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Weekly progress not found"}
                }
            }
        },
        "/students/{id}/report": {
            "get": {
                "tags": ["Weekly"],
                "summary": "Export a student's progress report",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "weeks", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Rendered report"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/jobs/recalculate-due": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Recalculate snapshots past their due time",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/jobs/recalculate-full": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Recalculate snapshots for all active students",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/classrooms/{id}/recalculate": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Recalculate snapshots for one classroom",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        }
    },
    "definitions": {
        "GenerateWeeklyPayload": {
            "type": "object",
            "required": ["week_number", "year"],
            "properties": {
                "week_number": {"type": "integer", "minimum": 1, "maximum": 53},
                "year": {"type": "integer", "minimum": 2000}
            }
        },
        "UpdateCommentaryRequest": {
            "type": "object",
            "properties": {
                "highlights": {"type": "string"},
                "teacher_comments": {"type": "string"},
                "action_items": {"type": "string"}
            }
        },
        "BatchResult": {
            "type": "object",
            "properties": {
                "processed": {"type": "integer"},
                "errors": {"type": "integer"},
                "total": {"type": "integer"}
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
                "pagination": {"type": "object"},
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
