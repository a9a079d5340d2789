package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; envelopes are small JSON documents.
const maxBodyBytes = 1 << 20

// parseComponentPath parses /api/v1/components/{name} or /api/v1/components/{name}/{action}
func parseComponentPath(path string) (name string, action string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/components/")
	path = strings.Trim(path, "/")

	if path == "" {
		return "", "", fmt.Errorf("invalid path: empty component name")
	}

	parts := strings.Split(path, "/")

	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// parseDesignPath parses /api/v1/designs/{componentID}
func parseDesignPath(path string) (string, error) {
	id := strings.Trim(strings.TrimPrefix(path, "/api/v1/designs/"), "/")
	if id == "" {
		return "", fmt.Errorf("invalid path: empty component id")
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid path format")
	}
	return id, nil
}

// parseBreakpoint reads ?breakpoint=, falling back to def
func parseBreakpoint(raw string, def pagekit.Breakpoint) (pagekit.Breakpoint, error) {
	if raw == "" {
		if def == "" {
			return pagekit.BreakpointDesktop, nil
		}
		return def, nil
	}
	bp := pagekit.Breakpoint(strings.ToLower(raw))
	if !bp.Valid() {
		return "", pagekit.NewInvalidBreakpointError(bp)
	}
	return bp, nil
}

// statusForError maps a PagekitError category onto an HTTP status
func statusForError(err error) int {
	var pe *pagekit.PagekitError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Type {
	case pagekit.ErrorTypeNotFound:
		return http.StatusNotFound
	case pagekit.ErrorTypeValidation:
		return http.StatusBadRequest
	case pagekit.ErrorTypeConflict:
		return http.StatusConflict
	case pagekit.ErrorTypeStorage:
		if pe.Code == pagekit.ErrCodeStorageUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// APIResponse is the standard response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeFailure writes err with the status and code derived from it.
// Unclassified errors are reported as internal errors.
func writeFailure(w http.ResponseWriter, err error) error {
	var pe *pagekit.PagekitError
	if !errors.As(err, &pe) {
		zap.S().Errorw("unclassified request failure", "error", err)
		pe = pagekit.NewInternalError(err)
		err = pe
	}
	return writeJSON(w, statusForError(err), APIResponse{Success: false, Error: err.Error(), Code: pe.Code})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// readBody reads a size-limited request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
