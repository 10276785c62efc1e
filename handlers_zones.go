package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleCreateZone adds a named sub-region to one of the user's fields.
func (a *App) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}

	var req createZoneReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if !req.ZoneType.Valid() {
		http.Error(w, "zoneType must be irrigation, soil_type, crop_variety, problem_area or equipment_path", http.StatusBadRequest)
		return
	}

	zone, err := a.store.CreateZone(b.FieldID, req.Name, req.ZoneType, req.Vertices, req.Properties)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(zone)
}

// handleListZones returns the field's zones, oldest first.
func (a *App) handleListZones(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}
	zones, err := a.store.ListZonesForField(b.FieldID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(zones)
}

// handleDeleteZone removes one zone; the parent boundary is untouched.
func (a *App) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}
	zoneID := chi.URLParam(r, "zoneID")
	if err := a.store.DeleteZone(b.FieldID, zoneID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
