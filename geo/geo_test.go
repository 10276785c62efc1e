package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareRing returns four corners of an approximately sideMeters square
// at the given latitude.
func squareRing(lat, lon, sideMeters float64) []Point {
	dLat := sideMeters / MetersPerDegree
	dLon := sideMeters / (MetersPerDegree * math.Cos(lat*math.Pi/180))
	return []Point{
		{Lat: lat, Lon: lon},
		{Lat: lat + dLat, Lon: lon},
		{Lat: lat + dLat, Lon: lon + dLon},
		{Lat: lat, Lon: lon + dLon},
	}
}

func TestDistance(t *testing.T) {
	// 0.001 degrees of latitude is ~111.2m regardless of longitude.
	a := Point{Lat: 38.0675, Lon: -120.5436}
	b := Point{Lat: 38.0685, Lon: -120.5436}

	d, err := Distance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 111.2, d, 0.5)

	// Commutative.
	rev, err := Distance(b, a)
	require.NoError(t, err)
	assert.Equal(t, d, rev)

	// Coincident points.
	same, err := Distance(a, a)
	require.NoError(t, err)
	assert.Zero(t, same)

	// Out-of-range coordinates are rejected.
	_, err = Distance(a, Point{Lat: 200, Lon: -300})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestAreaHectares_Square(t *testing.T) {
	// ~100m square at low latitude is ~1 hectare.
	ring := squareRing(2.5, 34.0, 100)

	area, err := AreaHectares(ring)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, area, 0.1)
}

func TestAreaHectares_WindingOrderIgnored(t *testing.T) {
	ring := squareRing(2.5, 34.0, 100)
	reversed := make([]Point, len(ring))
	for i, p := range ring {
		reversed[len(ring)-1-i] = p
	}

	cw, err := AreaHectares(ring)
	require.NoError(t, err)
	ccw, err := AreaHectares(reversed)
	require.NoError(t, err)
	assert.InDelta(t, cw, ccw, 1e-9)
}

func TestAreaHectares_InsufficientVertices(t *testing.T) {
	_, err := AreaHectares(squareRing(2.5, 34.0, 100)[:2])

	var insufficient *InsufficientVerticesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Got)
	assert.Equal(t, 3, insufficient.Want)
}

func TestPerimeterMeters_Square(t *testing.T) {
	ring := squareRing(2.5, 34.0, 100)

	perimeter, err := PerimeterMeters(ring)
	require.NoError(t, err)
	assert.InDelta(t, 400, perimeter, 4)

	_, err = PerimeterMeters(ring[:2])
	var insufficient *InsufficientVerticesError
	assert.ErrorAs(t, err, &insufficient)
}

func TestCentroid_IsArithmeticMean(t *testing.T) {
	ring := []Point{
		{Lat: 10.0, Lon: 20.0},
		{Lat: 10.2, Lon: 20.1},
		{Lat: 10.1, Lon: 20.3},
		{Lat: 9.9, Lon: 20.2},
	}

	c, err := Centroid(ring)
	require.NoError(t, err)

	var wantLat, wantLon float64
	for _, p := range ring {
		wantLat += p.Lat
		wantLon += p.Lon
	}
	assert.Equal(t, wantLat/4, c.Lat)
	assert.Equal(t, wantLon/4, c.Lon)

	_, err = Centroid(ring[:1])
	var insufficient *InsufficientVerticesError
	assert.ErrorAs(t, err, &insufficient)
}
