// Package docs holds the embedded swagger definition for the admin HTTP
// surface (internal/adminserver), in the shape `swag init` generates. It is
// hand-maintained here rather than tool-generated, but registers with the
// same swaggo/swag contract gin-swagger reads from at serve time.
package docs

import "github.com/swaggo/swag"

var doc = `{
    "swagger": "2.0",
    "info": {
        "description": "Read-only introspection for a single raftkv replica.",
        "title": "raftkv admin API",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/status": {
            "get": {
                "summary": "Replica status",
                "description": "Returns the replica's current role, term, leader, and commit progress.",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/adminserver.statusResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "adminserver.statusResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string"},
                "term": {"type": "integer"},
                "leader": {"type": "string"},
                "commit_index": {"type": "integer"},
                "last_applied": {"type": "integer"},
                "log_length": {"type": "integer"}
            }
        }
    }
}`

type swaggerInfo struct {
	Version     string
	Host        string
	BasePath    string
	Schemes     []string
	Title       string
	Description string
}

// SwaggerInfo holds the metadata swag-generated docs packages export.
var SwaggerInfo = swaggerInfo{
	Version:     "1.0",
	Host:        "",
	BasePath:    "/",
	Schemes:     []string{},
	Title:       "raftkv admin API",
	Description: "Read-only introspection for a single raftkv replica.",
}

type s struct{}

func (s *s) ReadDoc() string {
	return doc
}

func init() {
	swag.Register(swag.Name, &s{})
}
