package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
	"go.uber.org/zap"
)

const (
	previewReadLimit  = 64 << 10
	previewPongWait   = 60 * time.Second
	previewPingPeriod = 54 * time.Second
	previewWriteWait  = 10 * time.Second
)

// previewCommand is one client edit sent over the preview socket.
type previewCommand struct {
	Type       string             `json:"type"`
	Key        string             `json:"key,omitempty"`
	Value      any                `json:"value,omitempty"`
	Breakpoint pagekit.Breakpoint `json:"breakpoint,omitempty"`
	From       pagekit.Breakpoint `json:"from,omitempty"`
	Keys       []string           `json:"keys,omitempty"`
}

// previewMessage is pushed to the client after edits and on request.
type previewMessage struct {
	Type        string                                        `json:"type"`
	ComponentID string                                        `json:"componentId"`
	Breakpoint  pagekit.Breakpoint                            `json:"breakpoint,omitempty"`
	Props       pagekit.ValueSet                              `json:"props,omitempty"`
	Styles      pagekit.StyleMap                              `json:"styles,omitempty"`
	Fields      []pagekit.FieldState                          `json:"fields,omitempty"`
	Results     map[pagekit.FieldKey]pagekit.ValidationResult `json:"results,omitempty"`
	CanUndo     bool                                          `json:"canUndo"`
	CanRedo     bool                                          `json:"canRedo"`
	Error       string                                        `json:"error,omitempty"`
	Code        string                                        `json:"code,omitempty"`
}

// previewConn serializes writes; the editor's preview debouncer and the read
// loop both write to the socket.
type previewConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *previewConn) send(msg previewMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(previewWriteWait))
	return p.conn.WriteJSON(msg)
}

func (p *previewConn) ping() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(previewWriteWait))
	return p.conn.WriteMessage(websocket.PingMessage, nil)
}

// parsePreviewPath extracts component name and instance id from
// /api/v1/preview/{name}/{componentID}.
func parsePreviewPath(path string) (string, string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/preview/")
	if rest == path {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// handlePreview handles GET /api/v1/preview/{name}/{componentID}. The socket
// drives one editor session; the stored design is loaded when present.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name, componentID, ok := parsePreviewPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusBadRequest, "expected /api/v1/preview/{component}/{componentId}")
		return
	}
	schema, err := s.registry.GetComponent(name)
	if err != nil {
		writeFailure(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "component", name, "error", err)
		return
	}
	pc := &previewConn{conn: conn}
	defer conn.Close()

	editor, err := internal.NewEditorSession(internal.EditorOptions{
		ComponentID: componentID,
		Schema:      schema,
		Config:      s.editor,
		Validator:   s.validator,
		Store:       s.store,
		Preview: pagekit.PreviewFunc(func(id string, props pagekit.ValueSet, styles pagekit.StyleMap) {
			msg := stateMessage("preview", nil)
			msg.ComponentID, msg.Props, msg.Styles = id, props, styles
			if err := pc.send(msg); err != nil {
				zap.S().Debugw("preview push failed", "componentId", id, "error", err)
			}
		}),
	})
	if err != nil {
		pc.send(errorMessage(componentID, err))
		return
	}
	defer editor.Close()

	if err := editor.Load(r.Context()); err != nil && !pagekit.IsNotFound(err) {
		zap.S().Warnw("failed to load design for preview", "componentId", componentID, "error", err)
	}

	zap.S().Infow("preview session opened", "component", name, "componentId", componentID, "remote", r.RemoteAddr)
	if err := pc.send(stateMessage("state", editor)); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go keepAlive(pc, done)

	conn.SetReadLimit(previewReadLimit)
	conn.SetReadDeadline(time.Now().Add(previewPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(previewPongWait))
		return nil
	})

	for {
		var cmd previewCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.S().Warnw("preview socket read failed", "componentId", componentID, "error", err)
			}
			break
		}
		reply, err := applyPreviewCommand(r.Context(), editor, cmd)
		if err != nil {
			reply = errorMessage(componentID, err)
		}
		if err := pc.send(reply); err != nil {
			break
		}
	}
	zap.S().Infow("preview session closed", "componentId", componentID)
}

func keepAlive(pc *previewConn, done <-chan struct{}) {
	ticker := time.NewTicker(previewPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := pc.ping(); err != nil {
				return
			}
		}
	}
}

// applyPreviewCommand runs cmd against editor and returns the reply for the
// client. Preview pushes for edits arrive separately through the sink.
func applyPreviewCommand(ctx context.Context, editor pagekit.Editor, cmd previewCommand) (previewMessage, error) {
	var err error
	switch cmd.Type {
	case "set_value":
		err = editor.SetValue(cmd.Key, cmd.Value)
	case "set_style":
		err = editor.SetStyle(cmd.Breakpoint, cmd.Key, cmd.Value)
	case "inherit_styles":
		err = editor.InheritStyles(cmd.From, cmd.Breakpoint, cmd.Keys...)
	case "reset_styles":
		err = editor.ResetStyles(cmd.Breakpoint)
	case "set_breakpoint":
		err = editor.SetActiveBreakpoint(cmd.Breakpoint)
	case "apply_preset":
		err = editor.ApplyPreset(cmd.Key)
	case "undo":
		editor.Undo()
	case "redo":
		editor.Redo()
	case "reset":
		editor.Reset()
	case "validate":
		msg := stateMessage("validation", editor)
		msg.Results = editor.Validate()
		return msg, nil
	case "save":
		err = editor.Save(ctx)
		if err == nil {
			return stateMessage("saved", editor), nil
		}
	case "state":
	default:
		return previewMessage{}, pagekit.NewValidationError("type", fmt.Sprintf("unknown preview command %q", cmd.Type))
	}
	if err != nil {
		return previewMessage{}, err
	}
	return stateMessage("state", editor), nil
}

func stateMessage(kind string, editor pagekit.Editor) previewMessage {
	if editor == nil {
		return previewMessage{Type: kind}
	}
	return previewMessage{
		Type:        kind,
		ComponentID: editor.ComponentID(),
		Breakpoint:  editor.ActiveBreakpoint(),
		Props:       editor.ResolvedProps(),
		Styles:      editor.ResolvedStyles(),
		Fields:      editor.FieldStates(),
		CanUndo:     editor.CanUndo(),
		CanRedo:     editor.CanRedo(),
	}
}

func errorMessage(componentID string, err error) previewMessage {
	msg := previewMessage{Type: "error", ComponentID: componentID, Error: err.Error()}
	var pe *pagekit.PagekitError
	if errors.As(err, &pe) {
		msg.Code = pe.Code
	}
	return msg
}
