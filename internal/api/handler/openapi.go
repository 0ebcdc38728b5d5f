package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"sigs.k8s.io/yaml"
)

// OpenAPIHandler serves the API description as JSON.
type OpenAPIHandler struct {
	doc []byte
}

// NewOpenAPIHandler converts the YAML document to JSON once and stamps
// info.version with the running build's version.
func NewOpenAPIHandler(yamlSpec []byte, version string) (*OpenAPIHandler, error) {
	raw, err := yaml.YAMLToJSON(yamlSpec)
	if err != nil {
		return nil, fmt.Errorf("converting OpenAPI document: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding OpenAPI document: %w", err)
	}
	if info, ok := doc["info"].(map[string]any); ok && version != "" {
		info["version"] = version
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding OpenAPI document: %w", err)
	}
	return &OpenAPIHandler{doc: out}, nil
}

// ServeHTTP writes the cached JSON document.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.doc); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
