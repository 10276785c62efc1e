package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldmapper/geo"
	"fieldmapper/storage"
)

const persistTimeout = 5 * time.Second

func sessionKey(id string) string    { return "session:" + id }
func fieldKey(id string) string      { return "field:" + id }
func zonesKey(fieldID string) string { return "zones:" + fieldID }

// FieldStore exclusively owns completed field boundaries, their zones,
// and the set of active mapping sessions. All reads return deep copies,
// so a concurrent write never leaks a partially-updated record. Every
// mutation is mirrored best-effort into the durable KV backend;
// persistence failures are logged and never block.
type FieldStore struct {
	cfg    Config
	kv     storage.KV
	device DeviceInfoSource
	logger *zap.Logger

	mu       sync.RWMutex
	fields   map[string]*FieldBoundary
	zones    map[string]map[string]*FieldZone
	sessions map[string]*Session
}

// NewFieldStore creates a store over the given KV backend. device may be
// nil; logger may be nil for a no-op logger.
func NewFieldStore(cfg Config, kv storage.KV, device DeviceInfoSource, logger *zap.Logger) *FieldStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldStore{
		cfg:      cfg.withDefaults(),
		kv:       kv,
		device:   device,
		logger:   logger,
		fields:   make(map[string]*FieldBoundary),
		zones:    make(map[string]map[string]*FieldZone),
		sessions: make(map[string]*Session),
	}
}

// Restore loads persisted fields and zones from the KV backend. Sessions
// are not restored; an interrupted capture loses at most the points since
// its last checkpoint.
func (fs *FieldStore) Restore(ctx context.Context) error {
	fieldDocs, err := fs.kv.List(ctx, "field:")
	if err != nil {
		return fmt.Errorf("restore fields: %w", err)
	}
	zoneDocs, err := fs.kv.List(ctx, "zones:")
	if err != nil {
		return fmt.Errorf("restore zones: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for key, raw := range fieldDocs {
		var b FieldBoundary
		if err := json.Unmarshal(raw, &b); err != nil {
			fs.logger.Warn("skipping unreadable field record", zap.String("key", key), zap.Error(err))
			continue
		}
		fs.fields[b.FieldID] = &b
	}
	for key, raw := range zoneDocs {
		var zones []FieldZone
		if err := json.Unmarshal(raw, &zones); err != nil {
			fs.logger.Warn("skipping unreadable zone records", zap.String("key", key), zap.Error(err))
			continue
		}
		for i := range zones {
			z := zones[i]
			if fs.zones[z.FieldID] == nil {
				fs.zones[z.FieldID] = make(map[string]*FieldZone)
			}
			fs.zones[z.FieldID][z.ZoneID] = &z
		}
	}
	return nil
}

// StartSession begins a capture for a new field owned by ownerID,
// subscribing to the given location source. Device accuracy/battery are
// queried once, best-effort; absence is never an error.
func (fs *FieldStore) StartSession(ctx context.Context, ownerID string, method CaptureMethod, src Source) (*Session, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown capture method %q", method)
	}
	if src == nil {
		return nil, fmt.Errorf("location source is required")
	}

	status := DeviceStatus{BatteryPercent: 100}
	if fs.device != nil {
		if st, err := fs.device.DeviceStatus(ctx); err == nil {
			status = st
		} else {
			fs.logger.Debug("device status unavailable", zap.Error(err))
		}
	}

	sub, err := src.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribe to location source: %w", err)
	}

	s := &Session{
		store:          fs,
		src:            src,
		id:             uuid.NewString(),
		fieldID:        uuid.NewString(),
		ownerID:        ownerID,
		method:         method,
		status:         SessionActive,
		startedAt:      time.Now().UTC(),
		deviceAccuracy: status.AccuracyMeters,
		batteryPercent: status.BatteryPercent,
		sub:            sub,
	}

	fs.mu.Lock()
	fs.sessions[s.id] = s
	fs.mu.Unlock()

	go s.consume(sub)
	return s, nil
}

// GetSession returns the active session with the given id.
func (fs *FieldStore) GetSession(sessionID string) (*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	s, ok := fs.sessions[sessionID]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: sessionID}
	}
	return s, nil
}

// ActiveSessionCount reports how many sessions are currently tracked.
func (fs *FieldStore) ActiveSessionCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.sessions)
}

// finalizeSession atomically removes the session from the active set and
// inserts its boundary; no reader can observe both absent or both
// present.
func (fs *FieldStore) finalizeSession(sessionID string, b FieldBoundary) FieldBoundary {
	fs.mu.Lock()
	delete(fs.sessions, sessionID)
	stored := b
	fs.fields[b.FieldID] = &stored
	snap := stored.snapshot()
	fs.mu.Unlock()

	fs.persistField(snap)
	fs.deleteKey(sessionKey(sessionID))
	return snap
}

// removeSession drops a cancelled session and its checkpoint.
func (fs *FieldStore) removeSession(sessionID string) {
	fs.mu.Lock()
	delete(fs.sessions, sessionID)
	fs.mu.Unlock()
	fs.deleteKey(sessionKey(sessionID))
}

// GetField returns a snapshot of the boundary with the given id.
func (fs *FieldStore) GetField(fieldID string) (FieldBoundary, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	b, ok := fs.fields[fieldID]
	if !ok {
		return FieldBoundary{}, &FieldNotFoundError{FieldID: fieldID}
	}
	return b.snapshot(), nil
}

// ListFieldsForOwner returns the owner's boundaries, newest first.
func (fs *FieldStore) ListFieldsForOwner(ownerID string) []FieldBoundary {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]FieldBoundary, 0)
	for _, b := range fs.fields {
		if b.OwnerID == ownerID {
			out = append(out, b.snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UpdateFieldMetadata applies the farmer-editable fields; vertices and
// derived metrics are untouchable through this path.
func (fs *FieldStore) UpdateFieldMetadata(fieldID string, upd MetadataUpdate) (FieldBoundary, error) {
	fs.mu.Lock()
	b, ok := fs.fields[fieldID]
	if !ok {
		fs.mu.Unlock()
		return FieldBoundary{}, &FieldNotFoundError{FieldID: fieldID}
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.CropType != nil {
		b.CropType = *upd.CropType
	}
	if upd.SoilType != nil {
		b.SoilType = *upd.SoilType
	}
	if upd.IrrigationType != nil {
		b.IrrigationType = *upd.IrrigationType
	}
	b.UpdatedAt = time.Now().UTC()
	snap := b.snapshot()
	fs.mu.Unlock()

	fs.persistField(snap)
	return snap, nil
}

// DeleteField removes a boundary and cascades to its zones.
func (fs *FieldStore) DeleteField(fieldID string) error {
	fs.mu.Lock()
	if _, ok := fs.fields[fieldID]; !ok {
		fs.mu.Unlock()
		return &FieldNotFoundError{FieldID: fieldID}
	}
	delete(fs.fields, fieldID)
	delete(fs.zones, fieldID)
	fs.mu.Unlock()

	fs.deleteKey(fieldKey(fieldID))
	fs.deleteKey(zonesKey(fieldID))
	return nil
}

// CreateZone adds a named sub-region to an existing field. The zone's
// area is derived from its vertices at creation.
func (fs *FieldStore) CreateZone(fieldID, name string, zoneType ZoneType, vertices []Vertex, properties map[string]any) (FieldZone, error) {
	if !zoneType.Valid() {
		return FieldZone{}, fmt.Errorf("unknown zone type %q", zoneType)
	}
	if len(vertices) < 3 {
		return FieldZone{}, &geo.InsufficientVerticesError{Got: len(vertices), Want: 3}
	}
	area, err := geo.AreaHectares(ring(vertices))
	if err != nil {
		return FieldZone{}, err
	}

	zone := FieldZone{
		ZoneID:       uuid.NewString(),
		FieldID:      fieldID,
		Name:         name,
		ZoneType:     zoneType,
		Vertices:     copyVertices(vertices),
		Properties:   copyProperties(properties),
		AreaHectares: area,
		CreatedAt:    time.Now().UTC(),
	}

	fs.mu.Lock()
	if _, ok := fs.fields[fieldID]; !ok {
		fs.mu.Unlock()
		return FieldZone{}, &FieldNotFoundError{FieldID: fieldID}
	}
	if fs.zones[fieldID] == nil {
		fs.zones[fieldID] = make(map[string]*FieldZone)
	}
	stored := zone
	fs.zones[fieldID][zone.ZoneID] = &stored
	all := fs.zoneListLocked(fieldID)
	fs.mu.Unlock()

	fs.persistZones(fieldID, all)
	return zone.snapshot(), nil
}

// ListZonesForField returns the field's zones, oldest first.
func (fs *FieldStore) ListZonesForField(fieldID string) ([]FieldZone, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if _, ok := fs.fields[fieldID]; !ok {
		return nil, &FieldNotFoundError{FieldID: fieldID}
	}
	return fs.zoneListLocked(fieldID), nil
}

// DeleteZone removes one zone without touching the parent boundary.
func (fs *FieldStore) DeleteZone(fieldID, zoneID string) error {
	fs.mu.Lock()
	zones, ok := fs.zones[fieldID]
	if !ok {
		fs.mu.Unlock()
		if _, fieldExists := fs.fields[fieldID]; !fieldExists {
			return &FieldNotFoundError{FieldID: fieldID}
		}
		return &ZoneNotFoundError{ZoneID: zoneID}
	}
	if _, ok := zones[zoneID]; !ok {
		fs.mu.Unlock()
		return &ZoneNotFoundError{ZoneID: zoneID}
	}
	delete(zones, zoneID)
	all := fs.zoneListLocked(fieldID)
	fs.mu.Unlock()

	fs.persistZones(fieldID, all)
	return nil
}

func (fs *FieldStore) zoneListLocked(fieldID string) []FieldZone {
	out := make([]FieldZone, 0, len(fs.zones[fieldID]))
	for _, z := range fs.zones[fieldID] {
		out = append(out, z.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ZoneID < out[j].ZoneID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ---- best-effort persistence ----

func (fs *FieldStore) checkpointSession(snap SessionSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		fs.logger.Warn("marshal session checkpoint", zap.String("sessionId", snap.SessionID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := fs.kv.Set(ctx, sessionKey(snap.SessionID), raw); err != nil {
		fs.logger.Warn("session checkpoint failed", zap.String("sessionId", snap.SessionID), zap.Error(err))
	}
}

func (fs *FieldStore) persistField(b FieldBoundary) {
	raw, err := json.Marshal(b)
	if err != nil {
		fs.logger.Warn("marshal field record", zap.String("fieldId", b.FieldID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := fs.kv.Set(ctx, fieldKey(b.FieldID), raw); err != nil {
		fs.logger.Warn("persist field failed", zap.String("fieldId", b.FieldID), zap.Error(err))
	}
}

func (fs *FieldStore) persistZones(fieldID string, zones []FieldZone) {
	raw, err := json.Marshal(zones)
	if err != nil {
		fs.logger.Warn("marshal zone records", zap.String("fieldId", fieldID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := fs.kv.Set(ctx, zonesKey(fieldID), raw); err != nil {
		fs.logger.Warn("persist zones failed", zap.String("fieldId", fieldID), zap.Error(err))
	}
}

func (fs *FieldStore) deleteKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := fs.kv.Delete(ctx, key); err != nil {
		fs.logger.Warn("delete key failed", zap.String("key", key), zap.Error(err))
	}
}
