package mapping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmapper/geo"
	"fieldmapper/storage"
)

func newTestStore() (*FieldStore, *storage.Memory) {
	kv := storage.NewMemory()
	return NewFieldStore(Config{}, kv, nil, nil), kv
}

// northBy returns a copy of p shifted north by the given meters.
func northBy(p GeoPoint, meters float64) GeoPoint {
	p.Lat += meters / geo.MetersPerDegree
	return p
}

// squareCorners returns four corners of an approximately sideMeters
// square starting at base.
func squareCorners(base GeoPoint, sideMeters float64) []GeoPoint {
	return []GeoPoint{
		base,
		movedBy(base, sideMeters),
		northBy(movedBy(base, sideMeters), sideMeters),
		northBy(base, sideMeters),
	}
}

func waitForPoints(t *testing.T, s *Session, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.Snapshot().Points) == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionLifecycle(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()

	s, err := store.StartSession(context.Background(), "owner-1", BoundaryWalk, src)
	require.NoError(t, err)
	assert.Equal(t, SessionActive, s.Status())
	assert.Equal(t, 1, store.ActiveSessionCount())

	require.NoError(t, s.Pause())
	assert.Equal(t, SessionPaused, s.Status())

	// Pause is only valid from Active.
	var invalid *InvalidSessionStateError
	err = s.Pause()
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "pause", invalid.Op)
	assert.Equal(t, SessionPaused, invalid.Status)

	require.NoError(t, s.Resume())
	assert.Equal(t, SessionActive, s.Status())

	// Resume is only valid from Paused.
	err = s.Resume()
	assert.ErrorAs(t, err, &invalid)
}

func TestSessionCancelFromPaused(t *testing.T) {
	store, _ := newTestStore()
	s, err := store.StartSession(context.Background(), "owner-1", BoundaryWalk, NewPushSource())
	require.NoError(t, err)

	require.NoError(t, s.Pause())
	require.NoError(t, s.Cancel())
	assert.Equal(t, SessionCancelled, s.Status())
	assert.Empty(t, s.Snapshot().Points)

	// Removed from the active set.
	_, err = store.GetSession(s.ID())
	var notFound *SessionNotFoundError
	assert.ErrorAs(t, err, &notFound)

	// Terminal states admit no transitions.
	var invalid *InvalidSessionStateError
	assert.ErrorAs(t, s.Cancel(), &invalid)
	_, err = s.Complete("Field A")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "complete", invalid.Op)
	assert.Equal(t, SessionCancelled, invalid.Status)
}

func TestSessionAppendAfterCancelIsDropped(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", CornerPoints, src)
	require.NoError(t, err)

	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	src.Push(base)
	waitForPoints(t, s, 1)

	require.NoError(t, s.Cancel())

	// Stale deliveries after cancel never resurrect points.
	src.Push(movedBy(base, 20))
	src.Push(movedBy(base, 40))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, s.Snapshot().Points)
}

func TestSessionPauseStopsIngestion(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", CornerPoints, src)
	require.NoError(t, err)

	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	src.Push(base)
	waitForPoints(t, s, 1)

	require.NoError(t, s.Pause())
	// Points sent while paused were never requested; they are not
	// recovered on resume.
	src.Push(movedBy(base, 20))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, s.Snapshot().Points, 1)

	require.NoError(t, s.Resume())
	src.Push(movedBy(base, 40))
	waitForPoints(t, s, 2)
}

func TestSessionCompleteInsufficientPoints(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", BoundaryWalk, src)
	require.NoError(t, err)

	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	src.Push(base)
	src.Push(movedBy(base, 60))
	waitForPoints(t, s, 2)

	_, err = s.Complete("Field A")
	var insufficient *InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Got)

	// No boundary was created and the session is still usable.
	assert.Empty(t, store.ListFieldsForOwner("owner-1"))
	assert.Equal(t, SessionActive, s.Status())
	assert.Equal(t, 1, store.ActiveSessionCount())
}

func TestSessionCompleteBoundaryWalk(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", BoundaryWalk, src)
	require.NoError(t, err)

	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	corners := squareCorners(base, 100)
	for _, p := range corners {
		src.Push(p)
	}
	// Jittered duplicates near the last corner are filtered out.
	src.Push(movedBy(corners[3], 0.5))
	src.Push(movedBy(corners[3], 1.0))
	waitForPoints(t, s, 4)

	boundary, err := s.Complete("Field A")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, s.Status())

	assert.Equal(t, "Field A", boundary.Name)
	assert.Equal(t, "owner-1", boundary.OwnerID)
	assert.Equal(t, BoundaryWalk, boundary.CaptureMethod)
	assert.InDelta(t, 1.0, boundary.AreaHectares, 0.1)
	assert.InDelta(t, 400, boundary.PerimeterMeters, 10)
	assert.InDelta(t, 4.0, boundary.AccuracyMeters, 0.001)

	// Closure appended a copy of the first vertex: corners are 100m
	// apart, well past the closure tolerance.
	require.Len(t, boundary.Vertices, 5)
	assert.Equal(t, boundary.Vertices[0], boundary.Vertices[4])

	// Atomic swap: session gone, field visible.
	assert.Equal(t, 0, store.ActiveSessionCount())
	got, err := store.GetField(boundary.FieldID)
	require.NoError(t, err)
	assert.Equal(t, boundary.FieldID, got.FieldID)
	assert.InDelta(t, boundary.AreaHectares, got.AreaHectares, 1e-12)
}

func TestSessionCompleteCenterRadius(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", CenterRadius, src)
	require.NoError(t, err)

	center := GeoPoint{Lat: 10.0, Lon: 20.0, AccuracyMeters: 3}
	src.Push(center)
	src.Push(movedBy(center, 50))
	// A third sample is past the center/radius seed pair and discarded.
	src.Push(movedBy(center, 80))
	waitForPoints(t, s, 2)

	boundary, err := s.Complete("Round Paddock")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(boundary.Vertices), 36)

	// ~50m radius circle: pi * r^2 is ~0.785 ha, circumference ~314m.
	assert.InDelta(t, 0.785, boundary.AreaHectares, 0.04)
	assert.InDelta(t, 314, boundary.PerimeterMeters, 10)
}

func TestSessionCheckpointAutosave(t *testing.T) {
	store, kv := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", CornerPoints, src)
	require.NoError(t, err)

	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	p := base
	for i := 0; i < 10; i++ {
		src.Push(p)
		p = movedBy(p, 10)
	}
	waitForPoints(t, s, 10)

	// The tenth append triggers a background checkpoint.
	require.Eventually(t, func() bool {
		_, err := kv.Get(context.Background(), "session:"+s.ID())
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionStreamErrorsAreNonFatal(t *testing.T) {
	store, _ := newTestStore()
	src := NewPushSource()
	s, err := store.StartSession(context.Background(), "owner-1", CornerPoints, src)
	require.NoError(t, err)

	src.PushError(errors.New("gps signal lost"))
	base := GeoPoint{Lat: 2.5, Lon: 34.0, AccuracyMeters: 4}
	src.Push(base)
	waitForPoints(t, s, 1)

	assert.Equal(t, SessionActive, s.Status())
}

func TestStartSessionRejectsUnknownMethod(t *testing.T) {
	store, _ := newTestStore()
	_, err := store.StartSession(context.Background(), "owner-1", CaptureMethod("freehand"), NewPushSource())
	assert.Error(t, err)
}
