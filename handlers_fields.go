package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldmapper/geo"
	"fieldmapper/geojson"
	"fieldmapper/mapping"
)

// handleListFields returns the current user's fields, newest first.
func (a *App) handleListFields(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	_ = json.NewEncoder(w).Encode(a.store.ListFieldsForOwner(uid))
}

// handleGetField returns a single field by id (owned by the user).
func (a *App) handleGetField(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(b)
}

// handleUpdateField applies farmer-editable metadata. Vertices and the
// derived metrics cannot be changed here.
func (a *App) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}

	var req updateFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Name == nil && req.CropType == nil && req.SoilType == nil && req.IrrigationType == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	out, err := a.store.UpdateFieldMetadata(b.FieldID, mapping.MetadataUpdate{
		Name:           req.Name,
		CropType:       req.CropType,
		SoilType:       req.SoilType,
		IrrigationType: req.IrrigationType,
	})
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleDeleteField removes a field and cascades to its zones.
func (a *App) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteField(b.FieldID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleExportField renders the field and its zones as a GeoJSON
// FeatureCollection.
func (a *App) handleExportField(w http.ResponseWriter, r *http.Request) {
	b, ok := a.ownedField(w, r)
	if !ok {
		return
	}
	zones, err := a.store.ListZonesForField(b.FieldID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(geojson.FromField(b, zones))
}

// ---- helpers ----

// ownedField looks up the field and enforces ownership; misses and
// foreign fields both read as 404.
func (a *App) ownedField(w http.ResponseWriter, r *http.Request) (mapping.FieldBoundary, bool) {
	uid := mustUserID(r)
	id := chi.URLParam(r, "id")

	b, err := a.store.GetField(id)
	if err != nil || b.OwnerID != uid {
		http.Error(w, "not found", http.StatusNotFound)
		return mapping.FieldBoundary{}, false
	}
	return b, true
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses:
// contract violations are 400, bad transitions 409, lookup misses 404.
func (a *App) writeEngineError(w http.ResponseWriter, err error) {
	var (
		insufficientVertices *geo.InsufficientVerticesError
		insufficientPoints   *mapping.InsufficientPointsError
		invalidState         *mapping.InvalidSessionStateError
		fieldNotFound        *mapping.FieldNotFoundError
		zoneNotFound         *mapping.ZoneNotFoundError
		sessionNotFound      *mapping.SessionNotFoundError
	)

	switch {
	case errors.As(err, &insufficientVertices), errors.As(err, &insufficientPoints):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &invalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &fieldNotFound), errors.As(err, &zoneNotFound), errors.As(err, &sessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, geo.ErrInvalidCoordinate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
