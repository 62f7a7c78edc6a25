package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AAC Therapy API",
        "description": "Therapy goal tracking, session logging, progress reports and therapist collaboration.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Goals",
            "description": "Therapy goals and measurements"
        },
        {
            "name": "Tasks",
            "description": "Therapy tasks and recommendations"
        },
        {
            "name": "Sessions",
            "description": "Session logging"
        },
        {
            "name": "Patients",
            "description": "Patient ability profiles"
        },
        {
            "name": "Reports",
            "description": "Progress reports"
        },
        {
            "name": "Exports",
            "description": "Report file exports"
        },
        {
            "name": "Collaboration",
            "description": "Therapist and patient collaboration"
        }
    ],
    "paths": {
        "/goals": {
            "post": {
                "tags": [
                    "Goals"
                ],
                "summary": "Create therapy goal",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateGoalRequest"
                        }
                    }
                ]
            }
        },
        "/goals/{id}": {
            "get": {
                "tags": [
                    "Goals"
                ],
                "summary": "Get goal with progress percentage",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Goal ID"
                    }
                ]
            }
        },
        "/goals/{id}/measurements": {
            "post": {
                "tags": [
                    "Goals"
                ],
                "summary": "Apply a progress measurement",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Invalid state",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Goal ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MeasurementRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Goals"
                ],
                "summary": "List measurement history",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Goal ID"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/goals/{id}/status": {
            "patch": {
                "tags": [
                    "Goals"
                ],
                "summary": "Override goal status",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Invalid state",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Goal ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GoalStatusRequest"
                        }
                    }
                ]
            }
        },
        "/goals/{id}/tasks": {
            "get": {
                "tags": [
                    "Tasks"
                ],
                "summary": "List tasks attached to a goal",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Goal ID"
                    }
                ]
            }
        },
        "/tasks": {
            "post": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Create therapy task",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateTaskRequest"
                        }
                    }
                ]
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Get task",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Task ID"
                    }
                ]
            },
            "patch": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Patch task fields",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Unknown or invalid field",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Task ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ]
            }
        },
        "/tasks/{id}/progress": {
            "patch": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Update task progress",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Task ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TaskProgressRequest"
                        }
                    }
                ]
            }
        },
        "/sessions": {
            "post": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Log a therapy session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateSessionRequest"
                        }
                    }
                ]
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "Get a session",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Session ID"
                    }
                ]
            }
        },
        "/patients/{id}/goals": {
            "get": {
                "tags": [
                    "Goals"
                ],
                "summary": "List goals of a patient",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    }
                ]
            }
        },
        "/patients/{id}/sessions": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "summary": "List recent sessions of a patient",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/patients/{id}/reports": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "List progress reports of a patient",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    }
                ]
            }
        },
        "/patients/{id}/profile": {
            "get": {
                "tags": [
                    "Patients"
                ],
                "summary": "Get a patient profile",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    }
                ]
            },
            "put": {
                "tags": [
                    "Patients"
                ],
                "summary": "Create or replace a patient profile",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpsertProfileRequest"
                        }
                    }
                ]
            }
        },
        "/patients/{id}/recommended-tasks": {
            "get": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Recommended tasks for a patient",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Patient ID"
                    },
                    {
                        "name": "discipline",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "behavioral",
                            "speech",
                            "occupational"
                        ]
                    }
                ]
            }
        },
        "/reports": {
            "post": {
                "tags": [
                    "Reports"
                ],
                "summary": "Generate a progress report",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid range",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/GenerateReportRequest"
                        }
                    }
                ]
            }
        },
        "/reports/{id}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Get a progress report",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Report ID"
                    }
                ]
            }
        },
        "/reports/{id}/exports": {
            "post": {
                "tags": [
                    "Exports"
                ],
                "summary": "Queue a report export",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Report ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExportRequest"
                        }
                    }
                ]
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Export job status",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Export job ID"
                    }
                ]
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": [
                    "Exports"
                ],
                "summary": "Download a finished export",
                "produces": [
                    "application/octet-stream"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "403": {
                        "description": "Invalid or expired token",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/collaboration/requests": {
            "post": {
                "tags": [
                    "Collaboration"
                ],
                "summary": "Ask a therapist to take on a patient",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate request",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateCollaborationRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Collaboration"
                ],
                "summary": "List collaboration requests visible to the caller",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "therapistId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "patientId",
                        "in": "query",
                        "type": "string"
                    }
                ]
            }
        },
        "/collaboration/requests/{id}/accept": {
            "post": {
                "tags": [
                    "Collaboration"
                ],
                "summary": "Accept a pending request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Not pending",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Request ID"
                    }
                ]
            }
        },
        "/collaboration/requests/{id}/decline": {
            "post": {
                "tags": [
                    "Collaboration"
                ],
                "summary": "Decline a pending request",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Not pending",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Request ID"
                    }
                ]
            }
        },
        "/collaboration/relationships": {
            "get": {
                "tags": [
                    "Collaboration"
                ],
                "summary": "List active relationships of the calling therapist",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "therapistId",
                        "in": "query",
                        "type": "string"
                    }
                ]
            }
        }
    },
    "definitions": {
        "CreateGoalRequest": {
            "type": "object",
            "required": [
                "patientId",
                "discipline",
                "title"
            ],
            "properties": {
                "patientId": {
                    "type": "string"
                },
                "discipline": {
                    "type": "string",
                    "enum": [
                        "behavioral",
                        "speech",
                        "occupational"
                    ]
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "baselineData": {
                    "type": "object",
                    "properties": {
                        "frequency": {
                            "type": "number"
                        },
                        "duration": {
                            "type": "number"
                        },
                        "accuracy": {
                            "type": "number"
                        },
                        "independence": {
                            "type": "number"
                        }
                    }
                },
                "targetData": {
                    "type": "object",
                    "properties": {
                        "frequency": {
                            "type": "number"
                        },
                        "accuracy": {
                            "type": "number"
                        },
                        "independence": {
                            "type": "number"
                        },
                        "timeframe": {
                            "type": "integer"
                        }
                    }
                },
                "masteryCriteria": {
                    "type": "object",
                    "properties": {
                        "consecutiveDays": {
                            "type": "integer"
                        },
                        "accuracyThreshold": {
                            "type": "number"
                        },
                        "independenceThreshold": {
                            "type": "number"
                        }
                    }
                }
            }
        },
        "MeasurementRequest": {
            "type": "object",
            "properties": {
                "frequency": {
                    "type": "number"
                },
                "duration": {
                    "type": "number"
                },
                "accuracy": {
                    "type": "number"
                },
                "independence": {
                    "type": "number"
                }
            }
        },
        "GoalStatusRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "active",
                        "paused",
                        "discontinued"
                    ]
                }
            }
        },
        "CreateTaskRequest": {
            "type": "object",
            "required": [
                "title",
                "difficulty"
            ],
            "properties": {
                "goalId": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "instructions": {
                    "type": "string"
                },
                "difficulty": {
                    "type": "string",
                    "enum": [
                        "beginner",
                        "intermediate",
                        "advanced"
                    ]
                },
                "estimatedDuration": {
                    "type": "integer"
                },
                "dueDate": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "TaskProgressRequest": {
            "type": "object",
            "properties": {
                "progress": {
                    "type": "number"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "assigned",
                        "in_progress",
                        "completed"
                    ]
                }
            }
        },
        "UpsertProfileRequest": {
            "type": "object",
            "properties": {
                "displayName": {
                    "type": "string"
                },
                "communicationLevel": {
                    "type": "string"
                },
                "cognitiveLevel": {
                    "type": "string"
                },
                "motorLevel": {
                    "type": "string"
                }
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "required": [
                "patientId",
                "date"
            ],
            "properties": {
                "patientId": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date-time"
                },
                "duration": {
                    "type": "integer"
                },
                "goalIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "taskIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "notes": {
                    "type": "string"
                },
                "measurements": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "goalId": {
                                "type": "string"
                            },
                            "activity": {
                                "type": "string"
                            },
                            "attempts": {
                                "type": "integer"
                            },
                            "successes": {
                                "type": "integer"
                            },
                            "promptsGiven": {
                                "type": "integer"
                            },
                            "independence": {
                                "type": "number"
                            },
                            "accuracy": {
                                "type": "number"
                            }
                        }
                    }
                }
            }
        },
        "GenerateReportRequest": {
            "type": "object",
            "required": [
                "patientId",
                "startDate",
                "endDate"
            ],
            "properties": {
                "patientId": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "endDate": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": [
                "format"
            ],
            "properties": {
                "format": {
                    "type": "string",
                    "enum": [
                        "csv",
                        "pdf",
                        "xlsx"
                    ]
                }
            }
        },
        "CreateCollaborationRequest": {
            "type": "object",
            "required": [
                "patientId",
                "therapistId"
            ],
            "properties": {
                "patientId": {
                    "type": "string"
                },
                "patientName": {
                    "type": "string"
                },
                "therapistId": {
                    "type": "string"
                },
                "therapistName": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
