package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
)

func dialPreview(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, kind string) previewMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg previewMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q message: %v", kind, err)
		}
		if msg.Type == kind {
			return msg
		}
	}
}

func TestPreviewSession(t *testing.T) {
	store := internal.NewMemoryDesignStore()
	server := newTestServer(t, store)
	srv := httptest.NewServer(server.mux)
	defer srv.Close()

	conn, _, err := dialPreview(t, srv, "/api/v1/preview/button/hero-1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := readUntil(t, conn, "state")
	if initial.Props["label"] != "Click" {
		t.Fatalf("expected default label, got %v", initial.Props["label"])
	}
	if initial.CanUndo {
		t.Fatalf("a fresh session has nothing to undo")
	}

	if err := conn.WriteJSON(previewCommand{Type: "set_value", Key: "label", Value: "Subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := readUntil(t, conn, "state")
	if !state.CanUndo || state.Props["label"] != "Subscribe" {
		t.Fatalf("unexpected state after edit: %+v", state)
	}
	preview := readUntil(t, conn, "preview")
	if preview.ComponentID != "hero-1" || preview.Props["label"] != "Subscribe" {
		t.Fatalf("unexpected preview push: %+v", preview)
	}

	conn.WriteJSON(previewCommand{Type: "set_breakpoint", Breakpoint: "watch"})
	if msg := readUntil(t, conn, "error"); msg.Code != pagekit.ErrCodeInvalidBreakpoint {
		t.Fatalf("expected %s, got %+v", pagekit.ErrCodeInvalidBreakpoint, msg)
	}

	conn.WriteJSON(previewCommand{Type: "set_style", Breakpoint: pagekit.BreakpointDesktop, Key: "padding", Value: "12px"})
	if msg := readUntil(t, conn, "state"); msg.Styles["padding"] != "12px" {
		t.Fatalf("expected desktop padding in resolved styles, got %v", msg.Styles)
	}

	conn.WriteJSON(previewCommand{Type: "validate"})
	validation := readUntil(t, conn, "validation")
	if !validation.Results["label"].IsValid {
		t.Fatalf("expected label to be valid, got %+v", validation.Results["label"])
	}

	conn.WriteJSON(previewCommand{Type: "save"})
	readUntil(t, conn, "saved")
	if _, err := store.Load(context.Background(), "hero-1"); err != nil {
		t.Fatalf("expected stored design: %v", err)
	}

	conn.WriteJSON(previewCommand{Type: "undo"})
	if msg := readUntil(t, conn, "state"); msg.Styles["padding"] != nil {
		t.Fatalf("undo should drop the style edit, got %v", msg.Styles)
	}

	conn.WriteJSON(previewCommand{Type: "explode"})
	if msg := readUntil(t, conn, "error"); msg.Code != pagekit.ErrCodeValidationFailed {
		t.Fatalf("expected %s, got %+v", pagekit.ErrCodeValidationFailed, msg)
	}
}

func TestPreviewLoadsStoredDesign(t *testing.T) {
	store := internal.NewMemoryDesignStore()
	envelope, err := pagekit.ExportDesignToJSON(
		pagekit.ValueSet{"label": "Stored", "hasIcon": true, "icon": "star"},
		pagekit.BreakpointStyleMap{pagekit.BreakpointDesktop: {"color": "blue"}},
		nil,
	)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := store.Save(context.Background(), "hero-2", envelope); err != nil {
		t.Fatalf("save: %v", err)
	}

	srv := httptest.NewServer(newTestServer(t, store).mux)
	defer srv.Close()

	conn, _, err := dialPreview(t, srv, "/api/v1/preview/button/hero-2")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	state := readUntil(t, conn, "state")
	if state.Props["label"] != "Stored" || state.Props["icon"] != "star" {
		t.Fatalf("expected stored values, got %v", state.Props)
	}
	if state.Styles["color"] != "blue" {
		t.Fatalf("expected stored styles, got %v", state.Styles)
	}
}

func TestPreviewRejectsBeforeUpgrade(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, nil).mux)
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown component", "/api/v1/preview/ghost/hero-1", http.StatusNotFound},
		{"missing instance", "/api/v1/preview/button", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := dialPreview(t, srv, tt.path)
			if err == nil {
				t.Fatalf("expected the handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %v", tt.status, resp)
			}
		})
	}
}

func TestParsePreviewPath(t *testing.T) {
	tests := []struct {
		path      string
		name, id  string
		wantValid bool
	}{
		{"/api/v1/preview/button/hero-1", "button", "hero-1", true},
		{"/api/v1/preview/button/hero-1/", "button", "hero-1", true},
		{"/api/v1/preview/button", "", "", false},
		{"/api/v1/preview/button/a/b", "", "", false},
		{"/api/v1/designs/x", "", "", false},
	}
	for _, tt := range tests {
		name, id, ok := parsePreviewPath(tt.path)
		if ok != tt.wantValid || name != tt.name || id != tt.id {
			t.Errorf("parsePreviewPath(%q) = %q, %q, %v", tt.path, name, id, ok)
		}
	}
}

func TestPreviewChecksOrigin(t *testing.T) {
	server := newTestServer(t, nil)
	server.AllowOrigins("http://localhost:5173")
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/preview/button/hero-1"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected a forbidden handshake for a foreign origin, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:5173"}})
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	conn.Close()
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, nil)
	server.AllowOrigins("http://localhost:5173")
	handler := server.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/components/button/validate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/components", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for a foreign origin, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the request itself to be served, got %d", rec.Code)
	}
}
