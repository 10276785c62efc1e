package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldmapper/mapping"
)

// handleStartSession opens a mapping session for a new field. Each
// session gets its own push-driven location source, fed by the
// /points endpoint.
func (a *App) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	var req startSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if !req.CaptureMethod.Valid() {
		http.Error(w, "captureMethod must be boundary_walk, corner_points or center_radius", http.StatusBadRequest)
		return
	}

	src := mapping.NewPushSource()
	s, err := a.store.StartSession(r.Context(), uid, req.CaptureMethod, src)
	if err != nil {
		a.logger.Error("start session failed", zap.Error(err))
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

// handleGetSession returns the session's current state.
func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

// handlePushPoint feeds one device sample (or an in-band stream error)
// into the session's location source. Always 202: filtering and
// inactive-session discards are diagnostics, not request failures.
func (a *App) handlePushPoint(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}

	var req pushPointReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	src, ok := s.Source().(*mapping.PushSource)
	if !ok {
		http.Error(w, "session does not accept pushed samples", http.StatusConflict)
		return
	}

	if req.StreamError != "" {
		src.PushError(errors.New(req.StreamError))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	sample := mapping.GeoPoint{
		Lat:            req.Lat,
		Lon:            req.Lon,
		Elevation:      req.Elevation,
		AccuracyMeters: req.AccuracyMeters,
		SpeedMps:       req.SpeedMps,
		HeadingDegrees: req.HeadingDegrees,
	}
	if req.CapturedAt != nil {
		sample.CapturedAt = *req.CapturedAt
	}
	src.Push(sample)
	w.WriteHeader(http.StatusAccepted)
}

// handlePauseSession suspends ingestion, keeping captured points.
func (a *App) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.Pause(); err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

// handleResumeSession reopens the location stream after a pause.
func (a *App) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.Resume(); err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}

// handleCompleteSession finalizes the capture into a FieldBoundary.
func (a *App) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}

	var req completeSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	boundary, err := s.Complete(req.Name)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(boundary)
}

// handleCancelSession discards the capture without producing a boundary.
func (a *App) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.ownedSession(w, r)
	if !ok {
		return
	}
	if err := s.Cancel(); err != nil {
		a.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ownedSession looks up the session and enforces ownership; misses and
// foreign sessions both read as 404.
func (a *App) ownedSession(w http.ResponseWriter, r *http.Request) (*mapping.Session, bool) {
	uid := mustUserID(r)
	id := chi.URLParam(r, "id")

	s, err := a.store.GetSession(id)
	if err != nil || s.OwnerID() != uid {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}
