// Package geojson serializes field boundaries and zones into GeoJSON
// FeatureCollections, the system's sole interchange format. Ring
// coordinates are emitted [longitude, latitude] per the GeoJSON
// convention, the inverse of the engine's internal lat/lon order.
package geojson

import (
	"encoding/json"

	"fieldmapper/mapping"
)

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON geometry; Coordinates for a Polygon is a list of
// rings of [lon, lat] positions.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Position is a [longitude, latitude] coordinate pair.
type Position [2]float64

func polygonRing(vertices []mapping.Vertex) [][]Position {
	coords := make([]Position, 0, len(vertices)+1)
	for _, v := range vertices {
		coords = append(coords, Position{v.Lon, v.Lat})
	}
	// GeoJSON requires linear rings to be explicitly closed.
	if len(coords) > 0 && coords[0] != coords[len(coords)-1] {
		coords = append(coords, coords[0])
	}
	return [][]Position{coords}
}

// FromField builds a FeatureCollection with one Polygon Feature for the
// boundary followed by one per zone.
func FromField(boundary mapping.FieldBoundary, zones []mapping.FieldZone) *FeatureCollection {
	features := make([]Feature, 0, len(zones)+1)

	features = append(features, Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Polygon",
			Coordinates: polygonRing(boundary.Vertices),
		},
		Properties: map[string]any{
			"fieldId":         boundary.FieldID,
			"name":            boundary.Name,
			"areaHectares":    boundary.AreaHectares,
			"perimeterMeters": boundary.PerimeterMeters,
			"captureMethod":   string(boundary.CaptureMethod),
			"cropType":        boundary.CropType,
		},
	})

	for _, z := range zones {
		props := map[string]any{
			"zoneId":       z.ZoneID,
			"name":         z.Name,
			"zoneType":     string(z.ZoneType),
			"areaHectares": z.AreaHectares,
		}
		for k, v := range z.Properties {
			props[k] = v
		}
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Polygon",
				Coordinates: polygonRing(z.Vertices),
			},
			Properties: props,
		})
	}

	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// MarshalIndent renders the collection as indented JSON.
func (fc *FeatureCollection) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
