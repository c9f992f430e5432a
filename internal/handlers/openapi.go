package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the embedded OpenAPI document
type OpenAPIHandler struct {
	yamlDoc []byte
	jsonDoc []byte
	logger  *zap.Logger
}

// NewOpenAPIHandler parses the embedded document once so both formats are served from memory
func NewOpenAPIHandler(logger *zap.Logger) (*OpenAPIHandler, error) {
	return newOpenAPIHandler(openAPISpec, logger)
}

func newOpenAPIHandler(doc []byte, logger *zap.Logger) (*OpenAPIHandler, error) {
	var parsed map[string]any
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI specification: %w", err)
	}

	jsonDoc, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI specification to JSON: %w", err)
	}

	return &OpenAPIHandler{yamlDoc: doc, jsonDoc: jsonDoc, logger: logger}, nil
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	h.write(w, "application/yaml", h.yamlDoc)
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	h.write(w, "application/json", h.jsonDoc)
}

func (h *OpenAPIHandler) write(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("failed_to_write_openapi_response", zap.Error(err))
	}
}
