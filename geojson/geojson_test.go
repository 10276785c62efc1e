package geojson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmapper/mapping"
)

func testBoundary() mapping.FieldBoundary {
	return mapping.FieldBoundary{
		FieldID: "field-1",
		OwnerID: "owner-1",
		Name:    "North Paddock",
		Vertices: []mapping.Vertex{
			{Lat: 2.5, Lon: 34.0},
			{Lat: 2.501, Lon: 34.0},
			{Lat: 2.501, Lon: 34.001},
			{Lat: 2.5, Lon: 34.001},
		},
		AreaHectares:    1.23,
		PerimeterMeters: 445.0,
		CaptureMethod:   mapping.BoundaryWalk,
		CropType:        "maize",
		CreatedAt:       time.Now().UTC(),
	}
}

func testZone(id, name string) mapping.FieldZone {
	return mapping.FieldZone{
		ZoneID:   id,
		FieldID:  "field-1",
		Name:     name,
		ZoneType: mapping.ZoneProblemArea,
		Vertices: []mapping.Vertex{
			{Lat: 2.5, Lon: 34.0},
			{Lat: 2.5002, Lon: 34.0},
			{Lat: 2.5002, Lon: 34.0002},
		},
		Properties:   map[string]any{"note": "drainage"},
		AreaHectares: 0.02,
	}
}

func TestFromField(t *testing.T) {
	fc := FromField(testBoundary(), []mapping.FieldZone{testZone("z-1", "Wet Corner"), testZone("z-2", "Dry Corner")})

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	boundary := fc.Features[0]
	assert.Equal(t, "Feature", boundary.Type)
	assert.Equal(t, "Polygon", boundary.Geometry.Type)
	assert.Equal(t, "field-1", boundary.Properties["fieldId"])
	assert.Equal(t, 1.23, boundary.Properties["areaHectares"])
	assert.Equal(t, "boundary_walk", boundary.Properties["captureMethod"])

	zone := fc.Features[1]
	assert.Equal(t, "z-1", zone.Properties["zoneId"])
	assert.Equal(t, "problem_area", zone.Properties["zoneType"])
	// Custom zone properties are merged into the feature.
	assert.Equal(t, "drainage", zone.Properties["note"])
	assert.Equal(t, "z-2", fc.Features[2].Properties["zoneId"])
}

func TestFromField_RingsAreClosedLonLat(t *testing.T) {
	fc := FromField(testBoundary(), []mapping.FieldZone{testZone("z-1", "Wet Corner")})

	for _, f := range fc.Features {
		rings, ok := f.Geometry.Coordinates.([][]Position)
		require.True(t, ok)
		require.Len(t, rings, 1)

		ring := rings[0]
		require.GreaterOrEqual(t, len(ring), 4)
		assert.Equal(t, ring[0], ring[len(ring)-1])
	}

	// Positions are [lon, lat].
	first := fc.Features[0].Geometry.Coordinates.([][]Position)[0][0]
	assert.Equal(t, 34.0, first[0])
	assert.Equal(t, 2.5, first[1])
}

func TestFromField_NoZones(t *testing.T) {
	fc := FromField(testBoundary(), nil)
	require.Len(t, fc.Features, 1)

	raw, err := fc.MarshalIndent()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
}
