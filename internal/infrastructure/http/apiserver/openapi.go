package apiserver

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger   *zap.Logger
	spec     []byte
	specJSON []byte
}

// NewOpenAPIHandler creates a new OpenAPI handler. The JSON form is derived
// from the embedded YAML once.
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger, spec: openAPISpec}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &doc); err != nil {
		logger.Error("Failed to parse OpenAPI document", zap.Error(err))
		return h
	}
	specJSON, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to convert OpenAPI document to JSON", zap.Error(err))
		return h
	}
	h.specJSON = specJSON
	return h
}

// ServeOpenAPISpec serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}

// ServeOpenAPIJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	if h.specJSON == nil {
		http.Error(w, `{"success":false,"error":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specJSON)
}
