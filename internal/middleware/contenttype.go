package middleware

import (
	"mime"
	"net/http"

	"go.uber.org/zap"
)

// acceptedBodyTypes are the media types a schedule request may be sent as
var acceptedBodyTypes = map[string]bool{
	"application/json":   true,
	"application/yaml":   true,
	"application/x-yaml": true,
	"text/yaml":          true,
}

// IsYAML reports whether a Content-Type header names a YAML body
func IsYAML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType != "application/json" && acceptedBodyTypes[mediaType]
}

// ContentType validates Content-Type headers for requests with bodies
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
				contentType := r.Header.Get("Content-Type")
				if contentType == "" {
					respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", logger)
					return
				}

				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || !acceptedBodyTypes[mediaType] {
					respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type",
						"Content-Type must be application/json or application/yaml", logger)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
