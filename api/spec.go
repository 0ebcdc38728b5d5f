// Package api holds the HTTP API description served at /openapi.json.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3.1 document in YAML form.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
