package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
	"go.uber.org/zap"
)

type componentSummary struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	FieldCount  int    `json:"fieldCount"`
	PresetCount int    `json:"presetCount"`
}

type validateRequest struct {
	Values pagekit.ValueSet `json:"values"`
}

type validateResponse struct {
	Valid         bool                                          `json:"valid"`
	Results       map[pagekit.FieldKey]pagekit.ValidationResult `json:"results"`
	VisibleFields []pagekit.FieldKey                            `json:"visibleFields"`
	DocumentError string                                        `json:"documentError,omitempty"`
}

type resolveResponse struct {
	Breakpoint pagekit.Breakpoint `json:"breakpoint"`
	Props      pagekit.ValueSet   `json:"props"`
	Styles     pagekit.StyleMap   `json:"styles"`
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"components": len(s.registry.ListComponents()),
	})
}

// handleListComponents handles GET /api/v1/components
func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	names := s.registry.ListComponents()
	summaries := make([]componentSummary, 0, len(names))
	for _, name := range names {
		schema, err := s.registry.GetComponent(name)
		if err != nil {
			zap.S().Warnw("listed component could not be loaded", "component", name, "error", err)
			continue
		}
		summaries = append(summaries, componentSummary{
			Name:        schema.Name,
			Label:       schema.Label,
			Category:    schema.Category,
			Description: schema.Description,
			FieldCount:  len(schema.Fields),
			PresetCount: len(schema.Presets),
		})
	}

	writeSuccess(w, http.StatusOK, summaries)
}

// componentHandler dispatches /api/v1/components/{name}[/{action}]
func (s *Server) componentHandler(w http.ResponseWriter, r *http.Request) {
	name, action, err := parseComponentPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	schema, err := s.registry.GetComponent(name)
	if err != nil {
		writeFailure(w, err)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeSuccess(w, http.StatusOK, schema)
	case action == "jsonschema" && r.Method == http.MethodGet:
		s.handleJSONSchema(w, schema)
	case action == "validate" && r.Method == http.MethodPost:
		s.handleValidate(w, r, schema)
	case action == "resolve" && r.Method == http.MethodPost:
		s.handleResolve(w, r, schema)
	case action == "" || action == "jsonschema" || action == "validate" || action == "resolve":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action: %s", action))
	}
}

// handleJSONSchema handles GET /api/v1/components/{name}/jsonschema
func (s *Server) handleJSONSchema(w http.ResponseWriter, schema *pagekit.ComponentSchema) {
	doc, err := schema.JSONSchema()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build json schema: %v", err))
		return
	}
	writeSuccess(w, http.StatusOK, doc)
}

// handleValidate handles POST /api/v1/components/{name}/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, schema *pagekit.ComponentSchema) {
	var req validateRequest
	if err := readJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	values := schema.Defaults()
	for k, v := range req.Values {
		values[k] = v
	}

	graph := pagekit.BuildDependencyGraph(schema.Fields)
	results := s.validator.ValidateVisible(values, schema.Fields, graph)

	visible := schema.SortFields(graph.VisibleFields(values))
	keys := make([]pagekit.FieldKey, 0, len(visible))
	for _, f := range visible {
		keys = append(keys, f.Key)
	}

	resp := validateResponse{
		Valid:         pagekit.AllValid(results),
		Results:       results,
		VisibleFields: keys,
	}
	if err := schema.ValidateDocument(values); err != nil {
		resp.Valid = false
		resp.DocumentError = err.Error()
	}

	writeSuccess(w, http.StatusOK, resp)
}

// handleResolve handles POST /api/v1/components/{name}/resolve?breakpoint=...
// The body is a design envelope; the response carries the props and styles a
// renderer would receive for the requested breakpoint.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, schema *pagekit.ComponentSchema) {
	bp, err := parseBreakpoint(r.URL.Query().Get("breakpoint"), s.editor.DefaultBreakpoint)
	if err != nil {
		writeFailure(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	cfg := s.editor
	cfg.DefaultBreakpoint = bp
	cfg.PreviewDebounce = 0
	cfg.AutoSaveEnabled = false
	editor, err := internal.NewEditorSession(internal.EditorOptions{
		ComponentID: schema.Name,
		Schema:      schema,
		Config:      cfg,
		Validator:   s.validator,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	defer editor.Close()

	if err := editor.Import(body); err != nil {
		writeFailure(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, resolveResponse{
		Breakpoint: bp,
		Props:      editor.ResolvedProps(),
		Styles:     editor.ResolvedStyles(),
	})
}

// designHandler dispatches /api/v1/designs/{componentID}
func (s *Server) designHandler(w http.ResponseWriter, r *http.Request) {
	componentID, err := parseDesignPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handlePutDesign(w, r, componentID)
	case http.MethodGet:
		s.handleGetDesign(w, r, componentID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handlePutDesign handles PUT /api/v1/designs/{componentID}[?component=name]
func (s *Server) handlePutDesign(w http.ResponseWriter, r *http.Request, componentID string) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}

	// With a component name the envelope must decode against its fields.
	if name := r.URL.Query().Get("component"); name != "" {
		schema, err := s.registry.GetComponent(name)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if _, _, err := pagekit.ImportDesignFromJSON(body, schema.Fields); err != nil {
			writeFailure(w, err)
			return
		}
	} else if !json.Valid(body) {
		writeFailure(w, pagekit.NewInvalidJSONError(fmt.Errorf("request body is not valid JSON")))
		return
	}

	if err := s.store.Save(r.Context(), componentID, body); err != nil {
		zap.S().Warnw("failed to save design", "componentId", componentID, "error", err)
		writeFailure(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"componentId": componentID})
}

// handleGetDesign handles GET /api/v1/designs/{componentID}
func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request, componentID string) {
	data, err := s.store.Load(r.Context(), componentID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, json.RawMessage(data))
}
