package mapping

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmapper/geo"
)

// movedBy returns a copy of p shifted east by the given meters.
func movedBy(p GeoPoint, meters float64) GeoPoint {
	p.Lon += meters / (geo.MetersPerDegree * math.Cos(p.Lat*math.Pi/180))
	return p
}

func TestFilterBoundaryWalk_SuppressesJitter(t *testing.T) {
	// 50 points where most are within 1m of their predecessor, as from a
	// device held still between strides.
	points := []GeoPoint{{Lat: 2.5, Lon: 34.0, AccuracyMeters: 5}}
	for i := 1; i < 50; i++ {
		prev := points[len(points)-1]
		if i%5 == 0 {
			points = append(points, movedBy(prev, 4))
		} else {
			points = append(points, movedBy(prev, 0.8))
		}
	}
	require.Len(t, points, 50)

	kept := FilterBoundaryWalk(points, DefaultMinSpacingMeters)
	assert.Less(t, len(kept), 50)
	assert.NotEmpty(t, kept)
	assert.Equal(t, points[0], kept[0])

	// Every kept pair is at least the minimum spacing apart.
	for i := 1; i < len(kept); i++ {
		d, err := geo.Distance(kept[i-1].Coordinate(), kept[i].Coordinate())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, DefaultMinSpacingMeters)
	}
}

func TestSynthesizeCircle(t *testing.T) {
	center := GeoPoint{Lat: 10.0, Lon: 20.0}
	radiusPoint := movedBy(center, 50)

	vertices, err := SynthesizeCircle(center, radiusPoint)
	require.NoError(t, err)
	require.Len(t, vertices, 36)

	radius, err := geo.Distance(center.Coordinate(), radiusPoint.Coordinate())
	require.NoError(t, err)

	for _, v := range vertices {
		d, err := geo.Distance(center.Coordinate(), v.Coordinate())
		require.NoError(t, err)
		assert.InEpsilon(t, radius, d, 0.01)
	}
}

func TestCloseRing(t *testing.T) {
	base := GeoPoint{Lat: 2.5, Lon: 34.0}
	open := []Vertex{
		{Lat: base.Lat, Lon: base.Lon},
		{Lat: movedBy(base, 100).Lat, Lon: movedBy(base, 100).Lon},
		{Lat: movedBy(base, 50).Lat + 100/geo.MetersPerDegree, Lon: movedBy(base, 50).Lon},
	}

	t.Run("within tolerance leaves ring untouched", func(t *testing.T) {
		nearClosed := append(copyVertices(open), Vertex{Lat: movedBy(base, 3).Lat, Lon: movedBy(base, 3).Lon})
		out := CloseRing(nearClosed, DefaultClosureToleranceMeters)
		assert.Len(t, out, len(nearClosed))
	})

	t.Run("beyond tolerance appends first vertex", func(t *testing.T) {
		out := CloseRing(copyVertices(open), DefaultClosureToleranceMeters)
		require.Len(t, out, len(open)+1)
		assert.Equal(t, out[0], out[len(out)-1])
	})
}

func TestBuildVertices_CenterRadiusSeeds(t *testing.T) {
	cfg := Config{}.withDefaults()
	center := GeoPoint{Lat: 10.0, Lon: 20.0}

	_, err := cfg.buildVertices(CenterRadius, []GeoPoint{center})
	var insufficient *InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Got)

	vertices, err := cfg.buildVertices(CenterRadius, []GeoPoint{center, movedBy(center, 50)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(vertices), 36)
}

func TestAcceptSample_CenterRadiusStopsAtTwo(t *testing.T) {
	cfg := Config{}.withDefaults()
	center := GeoPoint{Lat: 10.0, Lon: 20.0}
	captured := []GeoPoint{center, movedBy(center, 50)}

	keep, reason := cfg.acceptSample(CenterRadius, captured, movedBy(center, 80))
	assert.False(t, keep)
	assert.NotEmpty(t, reason)
}

func TestAcceptSample_CornerPointsPassThrough(t *testing.T) {
	cfg := Config{}.withDefaults()
	p := GeoPoint{Lat: 10.0, Lon: 20.0}

	keep, _ := cfg.acceptSample(CornerPoints, []GeoPoint{p}, movedBy(p, 0.2))
	assert.True(t, keep)
}
