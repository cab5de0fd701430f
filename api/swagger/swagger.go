package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tra Cuu Diem Thi API",
        "description": "Public exam-score lookup portal with administrative back office",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Lookup", "description": "Public score lookup and captcha"},
        {"name": "Settings", "description": "Portal configuration"},
        {"name": "Authentication", "description": "Back-office sessions"},
        {"name": "Records", "description": "Score record management"},
        {"name": "Import", "description": "Spreadsheet import"}
    ],
    "paths": {
        "/lookup": {
            "post": {
                "tags": ["Lookup"],
                "summary": "Look up exam scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LookupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or captcha"},
                    "429": {"description": "Rate limited"},
                    "503": {"description": "Lookup closed"}
                }
            }
        },
        "/captcha": {
            "get": {
                "tags": ["Lookup"],
                "summary": "Issue captcha challenge",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/captcha/{id}": {
            "get": {
                "tags": ["Lookup"],
                "summary": "Render captcha image",
                "produces": ["image/png"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "404": {"description": "Unknown or expired challenge"}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get public portal settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate administrator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "Revoked"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/admin/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get portal settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update portal settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/settings/subjects/resync": {
            "post": {
                "tags": ["Settings"],
                "summary": "Rebuild subject catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/records": {
            "get": {
                "tags": ["Records"],
                "summary": "List score records",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Records"],
                "summary": "Create one score record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflicts with registry"}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete all records",
                "responses": {
                    "204": {"description": "Wiped"}
                }
            }
        },
        "/admin/records/{id}": {
            "put": {
                "tags": ["Records"],
                "summary": "Update one score record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete one score record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/admin/records/export": {
            "get": {
                "tags": ["Records"],
                "summary": "Export score records",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Records"],
                "summary": "Registry statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/import": {
            "post": {
                "tags": ["Import"],
                "summary": "Import score spreadsheet",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Batch summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large"}
                }
            }
        },
        "/admin/import/template": {
            "get": {
                "tags": ["Import"],
                "summary": "Download import template",
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "LookupRequest": {
            "type": "object",
            "properties": {
                "ho_ten": {"type": "string"},
                "so_bao_danh": {"type": "string"},
                "cccd": {"type": "string"},
                "ngay_sinh": {"type": "string"},
                "captcha_id": {"type": "string"},
                "captcha_answer": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "CreateRecordRequest": {
            "type": "object",
            "properties": {
                "so_bao_danh": {"type": "string"},
                "ho_ten": {"type": "string"},
                "mon_thi": {"type": "string"},
                "diem": {"type": "number"},
                "cccd": {"type": "string"},
                "truong": {"type": "string"},
                "ngay_sinh": {"type": "string"},
                "gioi_tinh": {"type": "string"}
            },
            "required": ["so_bao_danh", "ho_ten", "mon_thi"]
        },
        "UpdateRecordRequest": {
            "type": "object",
            "properties": {
                "ho_ten": {"type": "string"},
                "so_bao_danh": {"type": "string"},
                "cccd": {"type": "string"},
                "truong": {"type": "string"},
                "ngay_sinh": {"type": "string"},
                "gioi_tinh": {"type": "string"},
                "mon_thi": {"type": "string"},
                "diem": {"type": "number"}
            },
            "required": ["ho_ten", "so_bao_danh", "mon_thi"]
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
