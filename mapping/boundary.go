package mapping

import (
	"time"

	"fieldmapper/geo"
)

// FieldBoundary is the finalized geometric record of a captured field.
// Area, perimeter and centroid are derived from Vertices and recomputed
// whenever vertices change; they are never an independent source of
// truth. Produced exactly once, by completing a mapping session.
type FieldBoundary struct {
	FieldID         string        `json:"fieldId" bson:"fieldId"`
	OwnerID         string        `json:"ownerId" bson:"ownerId"`
	Name            string        `json:"name" bson:"name"`
	Vertices        []Vertex      `json:"vertices" bson:"vertices"`
	AreaHectares    float64       `json:"areaHectares" bson:"areaHectares"`
	PerimeterMeters float64       `json:"perimeterMeters" bson:"perimeterMeters"`
	Centroid        geo.Point     `json:"centroid" bson:"centroid"`
	CaptureMethod   CaptureMethod `json:"captureMethod" bson:"captureMethod"`
	AccuracyMeters  float64       `json:"accuracyMeters" bson:"accuracyMeters"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`

	// Farmer-facing metadata, mutable after capture.
	CropType       string `json:"cropType,omitempty" bson:"cropType,omitempty"`
	SoilType       string `json:"soilType,omitempty" bson:"soilType,omitempty"`
	IrrigationType string `json:"irrigationType,omitempty" bson:"irrigationType,omitempty"`
}

// FieldZone is a named sub-region of a field with its own lifecycle;
// zones come and go without touching the parent boundary.
type FieldZone struct {
	ZoneID       string         `json:"zoneId" bson:"zoneId"`
	FieldID      string         `json:"fieldId" bson:"fieldId"`
	Name         string         `json:"name" bson:"name"`
	ZoneType     ZoneType       `json:"zoneType" bson:"zoneType"`
	Vertices     []Vertex       `json:"vertices" bson:"vertices"`
	Properties   map[string]any `json:"properties,omitempty" bson:"properties,omitempty"`
	AreaHectares float64        `json:"areaHectares" bson:"areaHectares"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
}

// MetadataUpdate carries the farmer-editable boundary fields; nil means
// leave unchanged. Vertices are deliberately not updatable this way.
type MetadataUpdate struct {
	Name           *string `json:"name,omitempty"`
	CropType       *string `json:"cropType,omitempty"`
	SoilType       *string `json:"soilType,omitempty"`
	IrrigationType *string `json:"irrigationType,omitempty"`
}

func copyVertices(vertices []Vertex) []Vertex {
	out := make([]Vertex, len(vertices))
	copy(out, vertices)
	return out
}

func copyProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// snapshot returns a deep copy safe to hand to readers.
func (b FieldBoundary) snapshot() FieldBoundary {
	b.Vertices = copyVertices(b.Vertices)
	return b
}

// snapshot returns a deep copy safe to hand to readers.
func (z FieldZone) snapshot() FieldZone {
	z.Vertices = copyVertices(z.Vertices)
	z.Properties = copyProperties(z.Properties)
	return z
}
