package web

import (
	"fmt"
	"net/http"

	"github.com/cjeanneret/FlyGo/internal/editor"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

// DefaultEditedName names missions saved from the editing session without a name.
const DefaultEditedName = "Edited mission"

// EditorCommand is the body of POST /editor/commands. Op selects the
// command; only the fields it needs are read.
type EditorCommand struct {
	Op        string                `json:"op"`
	Zone      *mission.Zone         `json:"zone,omitempty"`      // add_zone
	ID        string                `json:"id,omitempty"`        // remove_zone, update_waypoint, remove_waypoint
	Config    *editor.ConfigPatch   `json:"config,omitempty"`    // update_config
	Waypoint  *editor.WaypointPatch `json:"waypoint,omitempty"`  // update_waypoint
	Waypoints []mission.Waypoint    `json:"waypoints,omitempty"` // set_waypoints
}

func (c EditorCommand) command() (editor.Command, error) {
	switch c.Op {
	case "add_zone":
		if c.Zone == nil {
			return nil, fmt.Errorf("add_zone needs a zone")
		}
		return editor.AddZone{Zone: *c.Zone}, nil
	case "remove_zone":
		return editor.RemoveZone{ID: c.ID}, nil
	case "update_config":
		if c.Config == nil {
			return nil, fmt.Errorf("update_config needs a config patch")
		}
		return editor.UpdateConfig{Patch: *c.Config}, nil
	case "clear_all":
		return editor.ClearAll{}, nil
	case "update_waypoint":
		if c.Waypoint == nil {
			return nil, fmt.Errorf("update_waypoint needs a waypoint patch")
		}
		return editor.UpdateWaypoint{ID: c.ID, Patch: *c.Waypoint}, nil
	case "remove_waypoint":
		return editor.RemoveWaypoint{ID: c.ID}, nil
	case "set_waypoints":
		return editor.SetImportedWaypoints{Waypoints: c.Waypoints}, nil
	default:
		return nil, fmt.Errorf("unknown editor op %q", c.Op)
	}
}

// EditorView is the response of every /editor route.
type EditorView struct {
	State   editor.State `json:"state"`
	CanUndo bool         `json:"can_undo"`
	CanRedo bool         `json:"can_redo"`
}

// EditorSaveRequest is the body of POST /editor/save.
type EditorSaveRequest struct {
	Name string `json:"name,omitempty"`
	Note string `json:"note,omitempty"`
}

// session returns the editing history, starting one from the form defaults
// on first use. Callers hold editorMu.
func (h *Handlers) session() *editor.History {
	if h.editor == nil {
		h.editor = editor.NewHistory(editor.NewState(h.FormDefaults.Flight), editor.DefaultHistoryLimit)
	}
	return h.editor
}

func (h *Handlers) editorView() EditorView {
	s := h.session()
	return EditorView{State: s.State(), CanUndo: s.CanUndo(), CanRedo: s.CanRedo()}
}

// HandleEditorState handles GET /editor.
func (h *Handlers) HandleEditorState(w http.ResponseWriter, r *http.Request) {
	h.editorMu.Lock()
	defer h.editorMu.Unlock()
	writeJSON(w, http.StatusOK, h.editorView())
}

// HandleEditorCommand handles POST /editor/commands. A rejected command
// leaves the session unchanged.
func (h *Handlers) HandleEditorCommand(w http.ResponseWriter, r *http.Request) {
	var req EditorCommand
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd, err := req.command()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.editorMu.Lock()
	defer h.editorMu.Unlock()
	if err := h.session().Do(cmd); err != nil {
		http.Error(w, err.Error(), planStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, h.editorView())
}

// HandleEditorUndo handles POST /editor/undo. It answers 409 when there is
// nothing to undo.
func (h *Handlers) HandleEditorUndo(w http.ResponseWriter, r *http.Request) {
	h.editorMu.Lock()
	defer h.editorMu.Unlock()
	if !h.session().Undo() {
		http.Error(w, "nothing to undo", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.editorView())
}

// HandleEditorRedo handles POST /editor/redo. It answers 409 when there is
// nothing to redo.
func (h *Handlers) HandleEditorRedo(w http.ResponseWriter, r *http.Request) {
	h.editorMu.Lock()
	defer h.editorMu.Unlock()
	if !h.session().Redo() {
		http.Error(w, "nothing to redo", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.editorView())
}

// HandleEditorSave handles POST /editor/save: the current state is stored
// as a new mission version.
func (h *Handlers) HandleEditorSave(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "mission vault not configured", http.StatusServiceUnavailable)
		return
	}
	var req EditorSaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = DefaultEditedName
	}

	h.editorMu.Lock()
	m := h.session().State().Mission(req.Name, h.now())
	h.editorMu.Unlock()

	ver, err := h.Store.Save(m, req.Note)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ver)
}
