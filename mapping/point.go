// Package mapping implements the GPS field-boundary capture engine:
// location-sample filtering, the mapping-session state machine, and the
// store of completed field boundaries and zones.
package mapping

import (
	"time"

	"fieldmapper/geo"
)

// GeoPoint is a single timestamped location sample with accuracy
// metadata. Immutable once created; produced by the location source or
// synthesized by the center-radius filter.
type GeoPoint struct {
	Lat            float64   `json:"lat" bson:"lat"`
	Lon            float64   `json:"lon" bson:"lon"`
	Elevation      *float64  `json:"elevation,omitempty" bson:"elevation,omitempty"`
	CapturedAt     time.Time `json:"capturedAt" bson:"capturedAt"`
	AccuracyMeters float64   `json:"accuracyMeters" bson:"accuracyMeters"`
	SpeedMps       *float64  `json:"speedMps,omitempty" bson:"speedMps,omitempty"`
	HeadingDegrees *float64  `json:"headingDegrees,omitempty" bson:"headingDegrees,omitempty"`
}

// Coordinate returns the sample's position as a geo.Point.
func (p GeoPoint) Coordinate() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// Vertex is one corner of a stored boundary or zone ring.
type Vertex struct {
	Lat       float64  `json:"lat" bson:"lat"`
	Lon       float64  `json:"lon" bson:"lon"`
	Elevation *float64 `json:"elevation,omitempty" bson:"elevation,omitempty"`
}

// Coordinate returns the vertex position as a geo.Point.
func (v Vertex) Coordinate() geo.Point {
	return geo.Point{Lat: v.Lat, Lon: v.Lon}
}

// ring converts a vertex list to the bare coordinates geo functions take.
func ring(vertices []Vertex) []geo.Point {
	out := make([]geo.Point, len(vertices))
	for i, v := range vertices {
		out[i] = v.Coordinate()
	}
	return out
}

// CaptureMethod selects how raw samples become boundary vertices.
type CaptureMethod string

const (
	// BoundaryWalk traces the perimeter continuously; jitter is
	// suppressed by a minimum-spacing filter.
	BoundaryWalk CaptureMethod = "boundary_walk"
	// CornerPoints records one deliberate tap per field corner.
	CornerPoints CaptureMethod = "corner_points"
	// CenterRadius takes a center and one radius point and synthesizes a
	// circular ring.
	CenterRadius CaptureMethod = "center_radius"
)

// Valid reports whether the method is one of the known capture methods.
func (m CaptureMethod) Valid() bool {
	switch m {
	case BoundaryWalk, CornerPoints, CenterRadius:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a mapping session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// ZoneType classifies a named sub-region of a field.
type ZoneType string

const (
	ZoneIrrigation    ZoneType = "irrigation"
	ZoneSoilType      ZoneType = "soil_type"
	ZoneCropVariety   ZoneType = "crop_variety"
	ZoneProblemArea   ZoneType = "problem_area"
	ZoneEquipmentPath ZoneType = "equipment_path"
)

// Valid reports whether the zone type is known.
func (z ZoneType) Valid() bool {
	switch z {
	case ZoneIrrigation, ZoneSoilType, ZoneCropVariety, ZoneProblemArea, ZoneEquipmentPath:
		return true
	}
	return false
}
