package web

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cjeanneret/FlyGo/internal/vault"
)

func newVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func getVersions(h *Handlers, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/missions/"+id+"/versions", nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.HandleMissionVersions(w, req)
	return w
}

func TestMissions_NoStore(t *testing.T) {
	h := newTestHandlers(noopPlan)
	if w := postJSON(t, h.HandleSaveMission, "/missions", SaveRequest{Mission: lineMission(2)}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("save: status = %d, want 503", w.Code)
	}
	if w := getVersions(h, "m1"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("versions: status = %d, want 503", w.Code)
	}
}

func TestMissions_SaveAndList(t *testing.T) {
	h := newTestHandlers(noopPlan, WithStore(newVault(t)))

	w := postJSON(t, h.HandleSaveMission, "/missions", SaveRequest{Mission: lineMission(3), Note: "draft"})
	if w.Code != http.StatusCreated {
		t.Fatalf("save: status = %d, body %s", w.Code, w.Body.String())
	}
	if v := decode[vault.Version](t, w); v.Version != 1 || v.Note != "draft" {
		t.Errorf("saved = %+v", v)
	}

	m := lineMission(5)
	m.Config.AltitudeMeters = 60
	if w := postJSON(t, h.HandleSaveMission, "/missions", SaveRequest{Mission: m}); w.Code != http.StatusCreated {
		t.Fatalf("second save: status = %d", w.Code)
	}

	w = getVersions(h, "m1")
	if w.Code != http.StatusOK {
		t.Fatalf("versions: status = %d", w.Code)
	}
	res := decode[VersionsResult](t, w)
	if len(res.Versions) != 2 || len(res.Diffs) != 1 {
		t.Fatalf("got %d versions, %d diff sets", len(res.Versions), len(res.Diffs))
	}
	fields := []string{}
	for _, d := range res.Diffs[0] {
		fields = append(fields, d.Field)
	}
	if len(fields) != 2 || fields[0] != "Altitude" || fields[1] != "Waypoint Count" {
		t.Errorf("diff fields = %v", fields)
	}
}

func TestMissions_Errors(t *testing.T) {
	h := newTestHandlers(noopPlan, WithStore(newVault(t)))
	noID := lineMission(1)
	noID.ID = ""
	if w := postJSON(t, h.HandleSaveMission, "/missions", SaveRequest{Mission: noID}); w.Code != http.StatusBadRequest {
		t.Errorf("empty id: status = %d, want 400", w.Code)
	}
	if w := getVersions(h, "ghost"); w.Code != http.StatusNotFound {
		t.Errorf("unknown mission: status = %d, want 404", w.Code)
	}
}
