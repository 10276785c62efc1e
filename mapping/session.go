package mapping

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"fieldmapper/geo"
)

const defaultCheckpointInterval = 10

// Session is one in-progress field capture. It owns an append-only point
// sequence fed by its location subscription; a single mutex serializes
// lifecycle transitions against concurrent sample deliveries, so a point
// arriving during a transition is either fully appended before it or
// fully rejected after.
type Session struct {
	store *FieldStore
	src   Source

	mu             sync.Mutex
	id             string
	fieldID        string
	ownerID        string
	method         CaptureMethod
	status         SessionStatus
	points         []GeoPoint
	startedAt      time.Time
	endedAt        *time.Time
	deviceAccuracy float64
	batteryPercent int
	sub            Subscription
}

// SessionSnapshot is a point-in-time copy of a session's state, used for
// API responses and autosave checkpoints.
type SessionSnapshot struct {
	SessionID            string        `json:"sessionId"`
	FieldID              string        `json:"fieldId"`
	OwnerID              string        `json:"ownerId"`
	CaptureMethod        CaptureMethod `json:"captureMethod"`
	Status               SessionStatus `json:"status"`
	Points               []GeoPoint    `json:"points"`
	StartedAt            time.Time     `json:"startedAt"`
	EndedAt              *time.Time    `json:"endedAt,omitempty"`
	DeviceAccuracyMeters float64       `json:"deviceAccuracyMeters"`
	DeviceBatteryPercent int           `json:"deviceBatteryPercent"`
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// FieldID returns the field this session will produce on completion.
func (s *Session) FieldID() string { return s.fieldID }

// OwnerID returns the owner the session was started for.
func (s *Session) OwnerID() string { return s.ownerID }

// Source returns the location source the session subscribes to.
func (s *Session) Source() Source { return s.src }

// Status returns the current lifecycle state.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a deep copy of the session's current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	points := make([]GeoPoint, len(s.points))
	copy(points, s.points)
	var ended *time.Time
	if s.endedAt != nil {
		t := *s.endedAt
		ended = &t
	}
	return SessionSnapshot{
		SessionID:            s.id,
		FieldID:              s.fieldID,
		OwnerID:              s.ownerID,
		CaptureMethod:        s.method,
		Status:               s.status,
		Points:               points,
		StartedAt:            s.startedAt,
		EndedAt:              ended,
		DeviceAccuracyMeters: s.deviceAccuracy,
		DeviceBatteryPercent: s.batteryPercent,
	}
}

// consume drains a subscription until both channels close. Stream errors
// are operational: logged and reported, never a state transition.
func (s *Session) consume(sub Subscription) {
	samples := sub.Samples()
	errs := sub.Errors()
	for samples != nil || errs != nil {
		select {
		case p, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			s.append(p)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.store.logger.Warn("location stream error",
				zap.String("sessionId", s.id), zap.Error(err))
		}
	}
}

// append records one incoming sample. Samples arriving while the session
// is not Active (including stale deliveries after cancel) are discarded
// with a diagnostic, never an error. Every checkpoint-interval appended
// points an autosave snapshot is written in the background.
func (s *Session) append(p GeoPoint) {
	s.mu.Lock()
	if s.status != SessionActive {
		status := s.status
		s.mu.Unlock()
		s.store.logger.Debug("discarding sample for inactive session",
			zap.String("sessionId", s.id), zap.String("status", string(status)))
		return
	}

	keep, reason := s.store.cfg.acceptSample(s.method, s.points, p)
	if !keep {
		s.mu.Unlock()
		s.store.logger.Debug("filtered location sample",
			zap.String("sessionId", s.id), zap.String("reason", reason))
		return
	}

	if p.CapturedAt.IsZero() {
		p.CapturedAt = time.Now().UTC()
	}
	s.points = append(s.points, p)

	var checkpoint *SessionSnapshot
	if len(s.points)%s.store.cfg.CheckpointInterval == 0 {
		snap := s.snapshotLocked()
		checkpoint = &snap
	}
	s.mu.Unlock()

	if checkpoint != nil {
		go s.store.checkpointSession(*checkpoint)
	}
}

// Pause stops sample ingestion but keeps captured points. Valid only
// from Active.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.status != SessionActive {
		defer s.mu.Unlock()
		return &InvalidSessionStateError{Op: "pause", Status: s.status}
	}
	sub := s.sub
	s.sub = nil
	s.status = SessionPaused
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	return nil
}

// Resume reopens a subscription on the session's source. Points missed
// while paused were never requested and are not recovered. Valid only
// from Paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != SessionPaused {
		return &InvalidSessionStateError{Op: "resume", Status: s.status}
	}

	sub, err := s.src.Subscribe()
	if err != nil {
		return err
	}
	s.sub = sub
	s.status = SessionActive
	go s.consume(sub)
	return nil
}

// Complete finalizes the capture: runs the capture-method filter and
// closure, derives area/perimeter/centroid, and atomically swaps the
// session for the new FieldBoundary in the store. Valid from Active or
// Paused. On failure the session is left untouched in its current state.
func (s *Session) Complete(fieldName string) (FieldBoundary, error) {
	s.mu.Lock()
	if s.status != SessionActive && s.status != SessionPaused {
		defer s.mu.Unlock()
		return FieldBoundary{}, &InvalidSessionStateError{Op: "complete", Status: s.status}
	}

	vertices, err := s.store.cfg.buildVertices(s.method, s.points)
	if err != nil {
		s.mu.Unlock()
		return FieldBoundary{}, err
	}

	r := ring(vertices)
	area, err := geo.AreaHectares(r)
	if err != nil {
		s.mu.Unlock()
		return FieldBoundary{}, err
	}
	perimeter, err := geo.PerimeterMeters(r)
	if err != nil {
		s.mu.Unlock()
		return FieldBoundary{}, err
	}
	centroid, err := geo.Centroid(r)
	if err != nil {
		s.mu.Unlock()
		return FieldBoundary{}, err
	}

	accuracies := make([]float64, len(s.points))
	for i, p := range s.points {
		accuracies[i] = p.AccuracyMeters
	}
	accuracy, err := stats.Mean(accuracies)
	if err != nil {
		accuracy = s.deviceAccuracy
	}

	now := time.Now().UTC()
	boundary := FieldBoundary{
		FieldID:         s.fieldID,
		OwnerID:         s.ownerID,
		Name:            fieldName,
		Vertices:        vertices,
		AreaHectares:    area,
		PerimeterMeters: perimeter,
		Centroid:        centroid,
		CaptureMethod:   s.method,
		AccuracyMeters:  accuracy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sub := s.sub
	s.sub = nil
	s.status = SessionCompleted
	s.endedAt = &now
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	return s.store.finalizeSession(s.id, boundary), nil
}

// Cancel closes the subscription, discards captured points and removes
// the session from the active set without producing a boundary. Valid
// from Active or Paused.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.status != SessionActive && s.status != SessionPaused {
		defer s.mu.Unlock()
		return &InvalidSessionStateError{Op: "cancel", Status: s.status}
	}
	sub := s.sub
	s.sub = nil
	s.status = SessionCancelled
	now := time.Now().UTC()
	s.endedAt = &now
	s.points = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	s.store.removeSession(s.id)
	return nil
}
