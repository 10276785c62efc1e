package mapping

import (
	"fmt"
	"math"

	"fieldmapper/geo"
)

const (
	// DefaultMinSpacingMeters suppresses GPS jitter during a boundary
	// walk: samples closer than this to the last kept point are dropped.
	DefaultMinSpacingMeters = 2.0

	// DefaultClosureToleranceMeters is the first/last vertex gap above
	// which a closing copy of the first vertex is appended.
	DefaultClosureToleranceMeters = 10.0

	// circleVertexCount is the number of vertices synthesized for a
	// center-radius capture (one per 10 degrees).
	circleVertexCount = 36

	// centerRadiusSeedCount: a center point and one radius point.
	centerRadiusSeedCount = 2
)

// Config carries the tunable filter constants. The zero value is
// normalized to the defaults.
type Config struct {
	MinSpacingMeters       float64
	ClosureToleranceMeters float64
	CheckpointInterval     int
}

func (c Config) withDefaults() Config {
	if c.MinSpacingMeters <= 0 {
		c.MinSpacingMeters = DefaultMinSpacingMeters
	}
	if c.ClosureToleranceMeters <= 0 {
		c.ClosureToleranceMeters = DefaultClosureToleranceMeters
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = defaultCheckpointInterval
	}
	return c
}

// acceptSample decides at ingest time whether a raw sample becomes a
// captured point, given the points captured so far. A false return is a
// discard, never an error.
func (c Config) acceptSample(method CaptureMethod, captured []GeoPoint, sample GeoPoint) (bool, string) {
	if !sample.Coordinate().Valid() {
		return false, "coordinates out of range"
	}

	switch method {
	case BoundaryWalk:
		if len(captured) == 0 {
			return true, ""
		}
		last := captured[len(captured)-1]
		d, err := geo.Distance(last.Coordinate(), sample.Coordinate())
		if err != nil {
			return false, err.Error()
		}
		if d < c.MinSpacingMeters {
			return false, fmt.Sprintf("within %.1fm of last kept point", c.MinSpacingMeters)
		}
		return true, ""

	case CornerPoints:
		return true, ""

	case CenterRadius:
		if len(captured) >= centerRadiusSeedCount {
			return false, "center and radius point already captured"
		}
		return true, ""
	}
	return false, "unknown capture method"
}

// FilterBoundaryWalk replays the minimum-spacing filter over a full
// sample sequence: the first point is always kept, each later point only
// when far enough from the last kept one. Order is preserved.
func FilterBoundaryWalk(points []GeoPoint, minSpacingMeters float64) []GeoPoint {
	if len(points) == 0 {
		return nil
	}
	kept := []GeoPoint{points[0]}
	for _, p := range points[1:] {
		last := kept[len(kept)-1]
		d, err := geo.Distance(last.Coordinate(), p.Coordinate())
		if err != nil || d < minSpacingMeters {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// SynthesizeCircle builds a 36-vertex ring around center with the radius
// given by the center-to-radiusPoint distance. The offsets use an
// equirectangular approximation, not a true geodesic circle.
func SynthesizeCircle(center, radiusPoint GeoPoint) ([]Vertex, error) {
	radius, err := geo.Distance(center.Coordinate(), radiusPoint.Coordinate())
	if err != nil {
		return nil, err
	}

	centerLatRad := center.Lat * math.Pi / 180
	vertices := make([]Vertex, 0, circleVertexCount)
	for i := 0; i < circleVertexCount; i++ {
		angle := float64(i) * (2 * math.Pi / circleVertexCount)
		latOffset := radius / geo.MetersPerDegree * math.Cos(angle)
		lonOffset := radius / (geo.MetersPerDegree * math.Cos(centerLatRad)) * math.Sin(angle)
		vertices = append(vertices, Vertex{
			Lat: center.Lat + latOffset,
			Lon: center.Lon + lonOffset,
		})
	}
	return vertices, nil
}

// CloseRing appends a copy of the first vertex when the ring's endpoints
// are farther apart than the closure tolerance. Rings already closed
// within tolerance are returned untouched, without a duplicate.
func CloseRing(vertices []Vertex, toleranceMeters float64) []Vertex {
	if len(vertices) < 2 {
		return vertices
	}
	first := vertices[0]
	last := vertices[len(vertices)-1]
	d, err := geo.Distance(first.Coordinate(), last.Coordinate())
	if err != nil || d <= toleranceMeters {
		return vertices
	}
	return append(vertices, first)
}

// buildVertices turns the captured point sequence into the closed vertex
// ring for a boundary, per capture method. Fewer than three usable
// captured points (two, for center-radius) is an InsufficientPointsError.
func (c Config) buildVertices(method CaptureMethod, points []GeoPoint) ([]Vertex, error) {
	switch method {
	case CenterRadius:
		if len(points) < centerRadiusSeedCount {
			return nil, &InsufficientPointsError{Got: len(points), Want: centerRadiusSeedCount}
		}
		vertices, err := SynthesizeCircle(points[0], points[1])
		if err != nil {
			return nil, err
		}
		return CloseRing(vertices, c.ClosureToleranceMeters), nil

	default:
		// Ingest already filtered boundary walks; rerunning the spacing
		// filter here is idempotent and covers sequences loaded whole.
		filtered := points
		if method == BoundaryWalk {
			filtered = FilterBoundaryWalk(points, c.MinSpacingMeters)
		}
		if len(filtered) < 3 {
			return nil, &InsufficientPointsError{Got: len(filtered), Want: 3}
		}
		vertices := make([]Vertex, len(filtered))
		for i, p := range filtered {
			vertices[i] = Vertex{Lat: p.Lat, Lon: p.Lon, Elevation: p.Elevation}
		}
		return CloseRing(vertices, c.ClosureToleranceMeters), nil
	}
}
