package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ward Roster API",
        "description": "Shift schedule reconciliation with override and swap approval workflows",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Schedule", "description": "Effective schedule and acknowledgments"},
        {"name": "Overrides", "description": "Unilateral schedule change requests"},
        {"name": "Interchanges", "description": "Two-party shift swaps"},
        {"name": "Roster", "description": "Ward membership lookups"}
    ],
    "paths": {
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Effective schedule for the authenticated nurse",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "description": "Range start (yyyy-mm-dd)"},
                    {"name": "to", "in": "query", "type": "string", "description": "Range end (yyyy-mm-dd)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/acknowledgments/pending": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Count of shifts awaiting acknowledgment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/shifts/{id}/acknowledge": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Acknowledge a scheduled shift",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Shift belongs to another nurse", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Shift not acknowledgeable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Export the effective schedule",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv or pdf"}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        },
        "/overrides": {
            "get": {
                "tags": ["Overrides"],
                "summary": "List override requests",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "nurse_id", "in": "query", "type": "string", "description": "Supervisors only"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Overrides"],
                "summary": "Request a schedule override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOverrideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already has an unresolved override", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overrides/{id}/approve": {
            "post": {
                "tags": ["Overrides"],
                "summary": "Approve a pending override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Requires supervisor role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Override already rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overrides/{id}/reject": {
            "post": {
                "tags": ["Overrides"],
                "summary": "Reject a pending override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RejectOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Override already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges": {
            "post": {
                "tags": ["Interchanges"],
                "summary": "Propose a shift swap with a ward colleague",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeInterchangeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Requester slot already contested", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges/outgoing": {
            "get": {
                "tags": ["Interchanges"],
                "summary": "List swaps proposed by the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges/incoming": {
            "get": {
                "tags": ["Interchanges"],
                "summary": "List swaps awaiting the caller's decision",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges/{id}": {
            "get": {
                "tags": ["Interchanges"],
                "summary": "Fetch a single swap visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges/{id}/respond": {
            "post": {
                "tags": ["Interchanges"],
                "summary": "Approve or reject a swap as the named peer",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondInterchangeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Swap already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "A referenced shift changed after the proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interchanges/{id}/withdraw": {
            "post": {
                "tags": ["Interchanges"],
                "summary": "Withdraw a pending swap as the requester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "The peer already acted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/roster/colleagues": {
            "get": {
                "tags": ["Roster"],
                "summary": "List active colleagues in the caller's ward",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateOverrideRequest": {
            "type": "object",
            "required": ["date", "kind", "reason"],
            "properties": {
                "nurse_id": {"type": "string"},
                "date": {"type": "string"},
                "kind": {"type": "string", "enum": ["TIME_OFF", "CANCELLATION", "SHIFT_CHANGE"]},
                "new_shift_type": {"type": "string"},
                "new_start_time": {"type": "string"},
                "new_end_time": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "RejectOverrideRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            }
        },
        "ProposeInterchangeRequest": {
            "type": "object",
            "required": ["requester_shift_id", "peer_id", "peer_shift_id", "reason"],
            "properties": {
                "requester_shift_id": {"type": "string"},
                "peer_id": {"type": "string"},
                "peer_shift_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "RespondInterchangeRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "note": {"type": "string"}
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
