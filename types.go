package main

import (
	"time"

	"fieldmapper/mapping"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FarmName string `json:"farmName,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type startSessionReq struct {
	CaptureMethod mapping.CaptureMethod `json:"captureMethod"`
}

// pushPointReq is one raw location sample pushed by the device.
type pushPointReq struct {
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	Elevation      *float64   `json:"elevation,omitempty"`
	AccuracyMeters float64    `json:"accuracyMeters"`
	SpeedMps       *float64   `json:"speedMps,omitempty"`
	HeadingDegrees *float64   `json:"headingDegrees,omitempty"`
	CapturedAt     *time.Time `json:"capturedAt,omitempty"`

	// A transport-level stream error reported in-band (signal lost,
	// permission denied). Non-fatal; logged against the session.
	StreamError string `json:"streamError,omitempty"`
}

type completeSessionReq struct {
	Name string `json:"name"`
}

type updateFieldReq struct {
	Name           *string `json:"name,omitempty"`
	CropType       *string `json:"cropType,omitempty"`
	SoilType       *string `json:"soilType,omitempty"`
	IrrigationType *string `json:"irrigationType,omitempty"`
}

type createZoneReq struct {
	Name       string           `json:"name"`
	ZoneType   mapping.ZoneType `json:"zoneType"`
	Vertices   []mapping.Vertex `json:"vertices"`
	Properties map[string]any   `json:"properties,omitempty"`
}
