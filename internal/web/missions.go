package web

import (
	"errors"
	"net/http"

	"github.com/cjeanneret/FlyGo/internal/mission"
	"github.com/cjeanneret/FlyGo/internal/vault"
)

// SaveRequest is the body of POST /missions.
type SaveRequest struct {
	Mission mission.Mission `json:"mission"`
	Note    string          `json:"note,omitempty"`
}

// VersionsResult is the response of GET /missions/{id}/versions. Diffs
// compare each version to the one before it.
type VersionsResult struct {
	Versions []vault.Version `json:"versions"`
	Diffs    [][]vault.Diff  `json:"diffs"`
}

// HandleSaveMission handles POST /missions.
func (h *Handlers) HandleSaveMission(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "mission vault not configured", http.StatusServiceUnavailable)
		return
	}
	var req SaveRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Mission.ID == "" {
		http.Error(w, "mission id is required", http.StatusBadRequest)
		return
	}
	ver, err := h.Store.Save(req.Mission, req.Note)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ver)
}

// HandleMissionVersions handles GET /missions/{id}/versions.
func (h *Handlers) HandleMissionVersions(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "mission vault not configured", http.StatusServiceUnavailable)
		return
	}
	versions, err := h.Store.Versions(r.PathValue("id"))
	if errors.Is(err, vault.ErrMissionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	res := VersionsResult{Versions: versions, Diffs: [][]vault.Diff{}}
	for i := 1; i < len(versions); i++ {
		diffs := vault.CompareMissions(versions[i-1].Mission, versions[i].Mission)
		if diffs == nil {
			diffs = []vault.Diff{}
		}
		res.Diffs = append(res.Diffs, diffs)
	}
	writeJSON(w, http.StatusOK, res)
}
