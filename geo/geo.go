// Package geo provides the spherical and planar geometry used by the
// field mapping engine: great-circle distance, polygon area/perimeter
// and centroid over latitude/longitude rings.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is the mean spherical earth radius.
	EarthRadiusMeters = 6371000.0

	// MetersPerDegree is the approximate length of one degree of
	// latitude (and of longitude at the equator).
	MetersPerDegree = 111320.0
)

// Point is a latitude/longitude coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

// InsufficientVerticesError reports a polygon operation invoked with too
// few vertices to form a ring.
type InsufficientVerticesError struct {
	Got  int
	Want int
}

func (e *InsufficientVerticesError) Error() string {
	return fmt.Sprintf("polygon requires at least %d vertices, got %d", e.Want, e.Got)
}

// ErrInvalidCoordinate is returned when a latitude or longitude is out of
// range.
var ErrInvalidCoordinate = errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")

// Valid reports whether the point is a usable coordinate.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance calculates the great-circle distance between two points in
// meters using the Haversine formula.
func Distance(a, b Point) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, ErrInvalidCoordinate
	}
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return 0, nil
	}

	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c, nil
}

// AreaHectares computes the polygon area of a vertex ring in hectares.
// The shoelace formula is applied in degree space and rescaled with a
// per-degree meter factor evaluated at the ring's mean latitude, which is
// accurate enough for field-sized polygons. Winding order is ignored.
func AreaHectares(ring []Point) (float64, error) {
	if len(ring) < 3 {
		return 0, &InsufficientVerticesError{Got: len(ring), Want: 3}
	}
	for _, p := range ring {
		if !p.Valid() {
			return 0, ErrInvalidCoordinate
		}
	}

	meanLat := 0.0
	for _, p := range ring {
		meanLat += p.Lat
	}
	meanLat /= float64(len(ring))

	latFactor := MetersPerDegree
	lonFactor := MetersPerDegree * math.Cos(meanLat*math.Pi/180)

	// Shoelace over meter-scaled coordinates.
	sum := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi := ring[i].Lon * lonFactor
		yi := ring[i].Lat * latFactor
		xj := ring[j].Lon * lonFactor
		yj := ring[j].Lat * latFactor
		sum += xi*yj - xj*yi
	}
	areaSqMeters := math.Abs(sum) / 2

	return areaSqMeters / 10000, nil
}

// PerimeterMeters sums the great-circle length of each edge of the ring,
// treating the vertex list as closed (last vertex connects to first).
func PerimeterMeters(ring []Point) (float64, error) {
	if len(ring) < 3 {
		return 0, &InsufficientVerticesError{Got: len(ring), Want: 3}
	}

	total := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		d, err := Distance(ring[i], ring[(i+1)%n])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Centroid returns the unweighted arithmetic mean of the ring's vertices.
// For concave rings this can fall outside the polygon.
func Centroid(ring []Point) (Point, error) {
	if len(ring) < 3 {
		return Point{}, &InsufficientVerticesError{Got: len(ring), Want: 3}
	}

	var lat, lon float64
	for _, p := range ring {
		if !p.Valid() {
			return Point{}, ErrInvalidCoordinate
		}
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(ring))
	return Point{Lat: lat / n, Lon: lon / n}, nil
}
